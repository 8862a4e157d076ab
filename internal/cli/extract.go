package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ppiankov/petty/internal/model"
	"github.com/ppiankov/petty/internal/render"
	"github.com/ppiankov/petty/internal/source"
	"github.com/spf13/cobra"
)

// exitNoDefendants is the exit code of a record without defendants
const exitNoDefendants = 2

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract the fields of a single record",
	Long: `Extract reads one record description and prints the structured case.
The text is taken from the argument, or from stdin when no argument is given.
HTML markup is stripped before extraction.

The command exits with status 2 when no defendant could be found.

Example:
  petty extract "Summary conviction of William Waters of the township of Whitby jet worker for being drunk..."
  petty extract --format csv < record.txt
  petty extract --backend spacy --server-url http://localhost:5000 < record.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("format", "json", "output format (json, csv)")
	extractCmd.Flags().String("backend", "", "annotation backend (prose, spacy, rules)")
	extractCmd.Flags().String("server-url", "", "spaCy annotation server URL")
	extractCmd.Flags().Bool("no-cache", false, "disable the annotation cache")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"backend":    "annotator.backend",
		"server-url": "annotator.server_url",
	}); err != nil {
		return err
	}

	text, err := readRecordText(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	format, _ := cmd.Flags().GetString("format")
	if format != render.FormatJSON && format != render.FormatCSV {
		return fmt.Errorf("%w: %q (supported: json, csv)", render.ErrUnknownFormat, format)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Annotator.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Annotator.Timeout)
		defer cancel()
	}

	c, err := svc.extractor.Extract(ctx, text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case render.FormatCSV:
		err = render.CSV(out, []render.Item{render.NewItem("1", c, nil)})
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(c)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if !c.Parsed() {
		return &ExitCodeError{Code: exitNoDefendants, Err: model.ErrNoDefendants}
	}
	return nil
}

func readRecordText(cmd *cobra.Command, args []string) (string, error) {
	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}

	text := strings.TrimSpace(source.Clean(raw))
	if text == "" {
		return "", errors.New("no record text given")
	}
	return text, nil
}
