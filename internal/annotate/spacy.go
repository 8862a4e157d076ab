package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ppiankov/petty/internal/logging"
	"github.com/ppiankov/petty/internal/model"
	"github.com/ppiankov/petty/internal/worker"
	"go.uber.org/zap"
)

const (
	defaultSpacyTimeout = 30 * time.Second
	maxResponseBytes    = 16 << 20
)

// SpacyBackend calls a spaCy annotation server over HTTP
type SpacyBackend struct {
	baseURL  string
	language string
	client   *retryablehttp.Client
	limiter  *worker.Limiter
	logger   *zap.Logger
}

type spacyRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type spacyToken struct {
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Tag     string `json:"tag"`
	EntType string `json:"ent_type"`
	EntIOB  string `json:"ent_iob"`
}

type spacySentence struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type spacyResponse struct {
	Tokens    []spacyToken    `json:"tokens"`
	Sentences []spacySentence `json:"sentences"`
}

type spacyError struct {
	Error string `json:"error"`
}

// NewSpacyBackend creates a client for the server at cfg.ServerURL
func NewSpacyBackend(cfg model.AnnotatorConfig, logger *zap.Logger) (*SpacyBackend, error) {
	baseURL := strings.TrimSuffix(cfg.ServerURL, "/")
	if baseURL == "" {
		return nil, errors.New("spacy backend requires annotator.server_url")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultSpacyTimeout
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	logger = logging.OrNop(logger).Named("spacy")

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logging.RetryableLogger(logger)
	client.CheckRetry = retryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, os.Getenv("NO_PROXY")),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	return &SpacyBackend{
		baseURL:  baseURL,
		language: language,
		client:   client,
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:   logger,
	}, nil
}

// retryPolicy retries connection errors and 5xx, never 4xx or cancellation
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Name returns the backend name
func (s *SpacyBackend) Name() string {
	return "spacy"
}

// IsAvailable checks the server health endpoint
func (s *SpacyBackend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		s.logger.Warn("spacy availability check failed", zap.String("url", s.baseURL), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("spacy availability check failed", zap.String("url", s.baseURL), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// Annotate posts text to the server and converts its reply
func (s *SpacyBackend) Annotate(ctx context.Context, text string) (*model.Document, error) {
	endpoint := s.baseURL + "/annotate"
	if err := s.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(spacyRequest{Text: text, Language: s.language})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr spacyError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: server error (%d): %s", ErrUnavailable, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, msg)
	}

	var parsed spacyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return convertSpacy(text, &parsed), nil
}

// convertSpacy builds a document from server tokens. Offsets that do not
// match the text are re-derived by alignment.
func convertSpacy(text string, resp *spacyResponse) *model.Document {
	tokens := make([]model.Token, len(resp.Tokens))
	valid := true
	for i, st := range resp.Tokens {
		tokens[i] = model.Token{Text: st.Text, Start: st.Start, End: st.End, Tag: st.Tag}
		if st.Start < 0 || st.End > len(text) || st.Start > st.End || text[st.Start:st.End] != st.Text {
			valid = false
		}
	}
	if !valid {
		words := make([]string, len(resp.Tokens))
		tags := make([]string, len(resp.Tokens))
		for i, st := range resp.Tokens {
			words[i], tags[i] = st.Text, st.Tag
		}
		tokens = alignTokens(text, words, tags)
	}

	// IOB runs become entity spans
	for i := 0; i < len(resp.Tokens); {
		st := resp.Tokens[i]
		kind := model.EntityKindFromLabel(st.EntType)
		if kind == model.EntityNone || strings.EqualFold(st.EntIOB, "O") || st.EntIOB == "" {
			i++
			continue
		}
		j := i + 1
		for j < len(resp.Tokens) && strings.EqualFold(resp.Tokens[j].EntIOB, "I") &&
			resp.Tokens[j].EntType == st.EntType {
			j++
		}
		markEntity(tokens, i, j, kind)
		i = j
	}

	sents := make([]charRange, 0, len(resp.Sentences))
	for _, s := range resp.Sentences {
		sents = append(sents, charRange{start: s.Start, end: s.End})
	}

	return &model.Document{
		Text:      text,
		Tokens:    tokens,
		Sentences: sentenceSpans(tokens, sents),
	}
}
