package app

import "time"

// Config holds runtime configuration for one run.
type Config struct {
	// Page is the lesson page to process: a local file path or an
	// http(s) URL.
	Page string
	// BaseURL overrides the base location relative image URLs resolve
	// against. Defaults to Page when Page is a URL.
	BaseURL string

	// Note storage
	AnkiURL   string
	Deck      string
	NoteModel string
	Tags      []string

	// Formatting
	LabelFormat    string
	IncludeChoices bool
	ParagraphMath  bool
	ShortOptionLen int
	DarkImageFix   bool

	// Behavior
	Replace bool
	Purge   bool
	DryRun  bool
	Verbose bool

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	// Hints (optional; off when HintModel is empty)
	HintBaseURL string
	HintModel   string
	HintAPIKey  string

	// Reports (optional)
	ReportPath    string
	ReportPDFPath string

	Selectors Selectors
}

// Selectors are the CSS selectors locating lesson structure on the page.
// They default to the known source-page idioms but stay configurable since
// the page occasionally reshuffles its class names.
type Selectors struct {
	Title   string `yaml:"title"`
	Step    string `yaml:"step"`
	Front   string `yaml:"front"`
	Back    string `yaml:"back"`
	Choices string `yaml:"choices"`
	Graphic string `yaml:"graphic"`
}

// DefaultSelectors returns the source page's current structure.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:   "h1",
		Step:    ".lesson-step",
		Front:   ".question",
		Back:    ".solution",
		Choices: "table.choices",
		Graphic: ".graphic",
	}
}

func (s *Selectors) fillDefaults() {
	d := DefaultSelectors()
	if s.Title == "" {
		s.Title = d.Title
	}
	if s.Step == "" {
		s.Step = d.Step
	}
	if s.Front == "" {
		s.Front = d.Front
	}
	if s.Back == "" {
		s.Back = d.Back
	}
	if s.Choices == "" {
		s.Choices = d.Choices
	}
	if s.Graphic == "" {
		s.Graphic = d.Graphic
	}
}
