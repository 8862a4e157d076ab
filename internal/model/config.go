package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete petty configuration
type Config struct {
	Annotator   AnnotatorConfig   `yaml:"annotator" mapstructure:"annotator"`
	Gazetteer   GazetteerConfig   `yaml:"gazetteer" mapstructure:"gazetteer"`
	Gender      GenderConfig      `yaml:"gender" mapstructure:"gender"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// AnnotatorConfig selects and tunes the NLP backend
type AnnotatorConfig struct {
	Backend           string        `yaml:"backend" mapstructure:"backend" validate:"oneof=prose spacy rules"`
	ServerURL         string        `yaml:"server_url" mapstructure:"server_url" validate:"omitempty,url"`
	Language          string        `yaml:"language" mapstructure:"language"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	RetryMax          int           `yaml:"retry_max" mapstructure:"retry_max" validate:"gte=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// GazetteerConfig lists names the NER model is forced to recognise
type GazetteerConfig struct {
	PersonNames []string `yaml:"person_names" mapstructure:"person_names"`
	PlaceNames  []string `yaml:"place_names" mapstructure:"place_names"`
	Files       []string `yaml:"files,omitempty" mapstructure:"files"`
}

// GenderConfig points at an optional extra forename dictionary
type GenderConfig struct {
	NamesFile string `yaml:"names_file,omitempty" mapstructure:"names_file"`
}

// CacheConfig controls the annotation cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds batch processing
type ConcurrencyConfig struct {
	Workers       int           `yaml:"workers" mapstructure:"workers" validate:"min=1"`
	RecordTimeout time.Duration `yaml:"record_timeout" mapstructure:"record_timeout" validate:"gte=0"`
}

// InputConfig describes how records are read from tabular input
type InputConfig struct {
	Column      string `yaml:"column" mapstructure:"column" validate:"required"`
	IDColumn    string `yaml:"id_column" mapstructure:"id_column"`
	TitleColumn string `yaml:"title_column" mapstructure:"title_column"`
	TitlePrefix string `yaml:"title_prefix" mapstructure:"title_prefix"`
}

// OutputConfig selects the rendering format
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json jsonl csv"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// ServerConfig configures the HTTP API and metrics listener
type ServerConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	MetricsAddr string `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "petty-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".petty", "cache")
	}

	return &Config{
		Annotator: AnnotatorConfig{
			Backend:           "prose",
			ServerURL:         "http://localhost:5000",
			Language:          "en",
			Timeout:           30 * time.Second,
			RetryMax:          3,
			RequestsPerSecond: 20,
			Burst:             5,
		},
		Gazetteer: GazetteerConfig{
			PersonNames: []string{},
			PlaceNames: []string{
				"Hawsker cum Stainsacre",
				"Newholm cum Dunsley",
				"Ugglebarnby",
				"Eskdaleside cum Ugglebarnby",
				"Liverton Mines",
				"Robin Hoods Bay",
				"Fylingdales",
				"Sneaton",
				"Ruswarp",
				"Whitby Strand",
			},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:       runtime.NumCPU(),
			RecordTimeout: 30 * time.Second,
		},
		Input: InputConfig{
			Column:      "description",
			IDColumn:    "id",
			TitleColumn: "title",
			TitlePrefix: "Summary conviction",
		},
		Output: OutputConfig{
			Format: "json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
