package gender

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/petty/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDictionaryIsValid(t *testing.T) {
	d := &Dictionary{names: make(map[string]string)}
	require.NoError(t, d.merge(strings.NewReader(defaultNames)))
	assert.Greater(t, d.Len(), 200)
}

func TestResolve(t *testing.T) {
	r := NewResolver(NewDictionary())

	tests := []struct {
		forenames string
		want      model.Gender
	}{
		{"William", model.GenderMale},
		{"Sarah Jane", model.GenderFemale},
		{"Mary Elizabeth", model.GenderFemale},
		{"Jonathan", model.GenderMale},
		{"Wm.", model.GenderMale},
		{"MARK", model.GenderMale},
		{"Francis", model.GenderMale},
		{"Evelyn", model.GenderFemale},
		{"Jessie", model.GenderUnknown},
		{"Leslie", model.GenderUnknown},
		{"Xerxes", model.GenderUnknown},
		{"", model.GenderUnknown},
		{"  ", model.GenderUnknown},
		{"H.M.", model.GenderUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.forenames, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.forenames))
		})
	}
}

type fixedClassifier map[string]string

func (f fixedClassifier) Classify(name string) string {
	if c, ok := f[name]; ok {
		return c
	}
	return "unknown"
}

func TestResolveCategoryMapping(t *testing.T) {
	r := NewResolver(fixedClassifier{
		"A": Male, "B": MostlyMale, "C": Female, "D": MostlyFemale, "E": Andy, "F": "unrecognised",
	})
	assert.Equal(t, model.GenderMale, r.Resolve("A"))
	assert.Equal(t, model.GenderMale, r.Resolve("B x"))
	assert.Equal(t, model.GenderFemale, r.Resolve("C"))
	assert.Equal(t, model.GenderFemale, r.Resolve("D"))
	assert.Equal(t, model.GenderUnknown, r.Resolve("E"))
	assert.Equal(t, model.GenderUnknown, r.Resolve("F"))
}

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "names.csv")
	content := "# local names\nJessie,female\nTamar,female\n\nSarah,andy\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, Female, d.Classify("jessie"))
	assert.Equal(t, Female, d.Classify("Tamar"))
	assert.Equal(t, Andy, d.Classify("Sarah"), "file entries replace built-in ones")
	assert.Equal(t, Male, d.Classify("William"))

	empty, err := LoadDictionary("")
	require.NoError(t, err)
	assert.Equal(t, NewDictionary().Len(), empty.Len())
}

func TestLoadDictionary_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDictionary(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Tamar\n"), 0644))
	_, err = LoadDictionary(bad)
	assert.Error(t, err)

	badCat := filepath.Join(dir, "badcat.csv")
	require.NoError(t, os.WriteFile(badCat, []byte("Tamar,woman\n"), 0644))
	_, err = LoadDictionary(badCat)
	assert.Error(t, err)
}
