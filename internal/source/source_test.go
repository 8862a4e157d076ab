package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,title,description
a1,Summary conviction of William Waters,"Summary conviction of William Waters of the township of Whitby jet worker for being drunk"
a2,Petition of the inhabitants,"Petition of the inhabitants of Sneaton"
a3,Summary conviction of Sarah Jane Williams,"Summary conviction of Sarah Jane Williams of Whitby seamstress for stealing"
a4,Summary conviction of nobody,
`

func TestCSVReader_FiltersByTitlePrefix(t *testing.T) {
	r := NewCSVReader(Options{Column: "description", IDColumn: "id", TitleColumn: "title", TitlePrefix: "Summary conviction"})

	records, err := r.Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a1", records[0].ID)
	assert.True(t, strings.HasPrefix(records[0].Text, "Summary conviction of William Waters"))
	assert.Equal(t, "a3", records[1].ID)
}

func TestCSVReader_NoFilterAndRowIDs(t *testing.T) {
	r := NewCSVReader(Options{Column: "Description"})

	records, err := r.Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3, "empty descriptions are dropped")
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "2", records[1].ID)
}

func TestCSVReader_MissingColumn(t *testing.T) {
	r := NewCSVReader(Options{Column: "notes"})
	_, err := r.Read(strings.NewReader(sampleCSV))
	assert.Error(t, err)
}

func TestCSVReader_Empty(t *testing.T) {
	records, err := NewCSVReader(Options{}).Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONLReader(t *testing.T) {
	input := `{"id":"x1","description":"Summary conviction of Thomas Brown"}

{"id":7,"text":"Summary conviction of Mary Elizabeth Adams"}
{"text":"  "}
{"description":"Summary conviction of William Tooley"}
`
	records, err := NewJSONLReader().Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "x1", records[0].ID)
	assert.Equal(t, "7", records[1].ID)
	assert.Equal(t, "Summary conviction of Mary Elizabeth Adams", records[1].Text)
	assert.Equal(t, "5", records[2].ID, "line number stands in for a missing id")
}

func TestJSONLReader_BadLine(t *testing.T) {
	_, err := NewJSONLReader().Read(strings.NewReader("{\"id\":1}\n{oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestTextReader(t *testing.T) {
	input := "# corpus\nSummary conviction of A B\n\nSummary conviction of A B\nSummary conviction of C D\n"
	records, err := NewTextReader().Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[0].ID)
	assert.Equal(t, "5", records[1].ID)
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  William Waters of Whitby  ", "William Waters of Whitby"},
		{"markup", "<p>William Waters<br/>of <b>Whitby</b></p><script>x()</script>", "William Waters of Whitby"},
		{"entities", "Brown &amp; Son", "Brown & Son"},
		{"nfc", "Café", "Café"},
		{"less-than", "value < 5s", "value < 5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(Options{Column: "description"})

	for path, want := range map[string]string{
		"records.csv":    "csv",
		"records.CSV":    "csv",
		"records.jsonl":  "jsonl",
		"records.ndjson": "jsonl",
		"records.txt":    "text",
	} {
		r, err := reg.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, r.Name(), path)
	}

	_, err := reg.Find("records.xlsx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestRegistry_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.txt")
	require.NoError(t, os.WriteFile(path, []byte("Summary conviction of A B\n"), 0644))

	records, err := NewRegistry(Options{}).ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = NewRegistry(Options{}).ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
