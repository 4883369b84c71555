package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to flags and keep the file readable.
type FileConfig struct {
	Page string `yaml:"page"`
	Base string `yaml:"base"`

	Anki struct {
		URL   string   `yaml:"url"`
		Deck  string   `yaml:"deck"`
		Model string   `yaml:"model"`
		Tags  []string `yaml:"tags"`
	} `yaml:"anki"`

	Format struct {
		Labels         string `yaml:"labels"`
		Choices        *bool  `yaml:"choices"`
		ParagraphMath  bool   `yaml:"paragraphMath"`
		ShortOptionLen int    `yaml:"shortOptionLen"`
		DarkImageFix   bool   `yaml:"darkImageFix"`
	} `yaml:"format"`

	Cache struct {
		Dir string `yaml:"dir"`
		// MaxAge is a duration string such as "24h".
		MaxAge string `yaml:"maxAge"`
		Clear  bool   `yaml:"clear"`
	} `yaml:"cache"`

	Hint struct {
		Base  string `yaml:"base"`
		Model string `yaml:"model"`
		Key   string `yaml:"key"`
	} `yaml:"hint"`

	Report struct {
		Markdown string `yaml:"markdown"`
		PDF      string `yaml:"pdf"`
	} `yaml:"report"`

	Selectors Selectors `yaml:"selectors"`

	Verbose bool `yaml:"verbose"`
}

// LoadFileConfig reads and parses a YAML config file. A missing path is
// not an error; callers pass "" when no file was requested.
func LoadFileConfig(path string) (*FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if fc.Cache.MaxAge != "" {
		if _, err := time.ParseDuration(fc.Cache.MaxAge); err != nil {
			return nil, fmt.Errorf("parse config: cache.maxAge: %w", err)
		}
	}
	return &fc, nil
}

// Merge overlays file values onto cfg for every field the caller left at
// its zero value, preserving flag precedence over the file.
func (fc *FileConfig) Merge(cfg *Config) {
	if fc == nil {
		return
	}
	if cfg.Page == "" {
		cfg.Page = fc.Page
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fc.Base
	}
	if cfg.AnkiURL == "" {
		cfg.AnkiURL = fc.Anki.URL
	}
	if cfg.Deck == "" {
		cfg.Deck = fc.Anki.Deck
	}
	if cfg.NoteModel == "" {
		cfg.NoteModel = fc.Anki.Model
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = fc.Anki.Tags
	}
	if cfg.LabelFormat == "" {
		cfg.LabelFormat = fc.Format.Labels
	}
	if fc.Format.Choices != nil {
		cfg.IncludeChoices = *fc.Format.Choices
	}
	if !cfg.ParagraphMath {
		cfg.ParagraphMath = fc.Format.ParagraphMath
	}
	if cfg.ShortOptionLen == 0 {
		cfg.ShortOptionLen = fc.Format.ShortOptionLen
	}
	if !cfg.DarkImageFix {
		cfg.DarkImageFix = fc.Format.DarkImageFix
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge != "" {
		if d, err := time.ParseDuration(fc.Cache.MaxAge); err == nil {
			cfg.CacheMaxAge = d
		}
	}
	if !cfg.CacheClear {
		cfg.CacheClear = fc.Cache.Clear
	}
	if cfg.HintBaseURL == "" {
		cfg.HintBaseURL = fc.Hint.Base
	}
	if cfg.HintModel == "" {
		cfg.HintModel = fc.Hint.Model
	}
	if cfg.HintAPIKey == "" {
		cfg.HintAPIKey = fc.Hint.Key
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = fc.Report.Markdown
	}
	if cfg.ReportPDFPath == "" {
		cfg.ReportPDFPath = fc.Report.PDF
	}
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = fc.Selectors
	}
	if !cfg.Verbose {
		cfg.Verbose = fc.Verbose
	}
}
