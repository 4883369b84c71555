package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/consecrate/autocard/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath   string
		page         string
		baseURL      string
		ankiURL      string
		deck         string
		noteModel    string
		tags         string
		labelFormat  string
		withChoices  bool
		paraMath     bool
		shortLen     int
		darkFix      bool
		replace      bool
		purge        bool
		dryRun       bool
		verbose      bool
		cacheDir     string
		cacheMaxAge  time.Duration
		cacheClear   bool
		hintBase     string
		hintModel    string
		hintKey      string
		reportPath   string
		reportPDF    string
	)

	flag.StringVar(&configPath, "config", os.Getenv("AUTOCARD_CONFIG"), "Path to YAML config file")
	flag.StringVar(&page, "page", "", "Lesson page: local HTML file or http(s) URL")
	flag.StringVar(&baseURL, "base", "", "Base URL for resolving relative image links")
	flag.StringVar(&ankiURL, "anki.url", os.Getenv("ANKICONNECT_URL"), "AnkiConnect endpoint (default http://127.0.0.1:8765)")
	flag.StringVar(&deck, "anki.deck", "", "Target deck name")
	flag.StringVar(&noteModel, "anki.model", "", "Note type (default Basic)")
	flag.StringVar(&tags, "anki.tags", "", "Comma-separated extra tags")
	flag.StringVar(&labelFormat, "labels", "", "Choice label style: paren, dot, or bracket")
	flag.BoolVar(&withChoices, "choices", true, "Include the choices table on card fronts")
	flag.BoolVar(&paraMath, "paragraph-math", false, "Pad block math with blank lines")
	flag.IntVar(&shortLen, "short-option-len", 0, "Length under which dropdown options join inline (default 5)")
	flag.BoolVar(&darkFix, "dark-image-fix", false, "Composite images onto an opaque background for dark themes")
	flag.BoolVar(&replace, "replace", false, "Recreate cards that already exist")
	flag.BoolVar(&purge, "purge", false, "Delete this lesson's previously created notes and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Extract without touching the note store")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&cacheDir, "cache.dir", ".autocard-cache", "Cache directory path")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.StringVar(&hintBase, "hint.base", os.Getenv("HINT_BASE_URL"), "OpenAI-compatible base URL for hint generation")
	flag.StringVar(&hintModel, "hint.model", os.Getenv("HINT_MODEL"), "Model for hint generation; empty disables hints")
	flag.StringVar(&hintKey, "hint.key", os.Getenv("HINT_API_KEY"), "API key for the hint endpoint")
	flag.StringVar(&reportPath, "report", "", "Write a Markdown run summary to this path")
	flag.StringVar(&reportPDF, "report.pdf", "", "Write a PDF run summary to this path")
	flag.Parse()

	cfg := app.Config{
		Page:           page,
		BaseURL:        baseURL,
		AnkiURL:        ankiURL,
		Deck:           deck,
		NoteModel:      noteModel,
		LabelFormat:    labelFormat,
		IncludeChoices: withChoices,
		ParagraphMath:  paraMath,
		ShortOptionLen: shortLen,
		DarkImageFix:   darkFix,
		Replace:        replace,
		Purge:          purge,
		DryRun:         dryRun,
		Verbose:        verbose,
		CacheDir:       cacheDir,
		CacheMaxAge:    cacheMaxAge,
		CacheClear:     cacheClear,
		HintBaseURL:    hintBase,
		HintModel:      hintModel,
		HintAPIKey:     hintKey,
		ReportPath:     reportPath,
		ReportPDFPath:  reportPDF,
	}
	if s := strings.TrimSpace(tags); s != "" {
		for _, t := range strings.Split(s, ",") {
			if v := strings.TrimSpace(t); v != "" {
				cfg.Tags = append(cfg.Tags, v)
			}
		}
	}

	// The choices flag defaults to true, so a zero-value check cannot tell
	// "unset" from an explicit -choices=true. Track set-ness directly.
	choicesSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "choices" {
			choicesSet = true
		}
	})

	fileCfg, err := app.LoadFileConfig(configPath)
	if err != nil {
		log.Error().Err(err).Msg("config")
		os.Exit(2)
	}
	fileCfg.Merge(&cfg)
	if choicesSet {
		cfg.IncludeChoices = withChoices
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if strings.TrimSpace(cfg.Page) == "" {
		fmt.Fprintln(os.Stderr, "autocard: -page is required")
		flag.Usage()
		os.Exit(2)
	}

	run, err := app.Run(context.Background(), cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
	created, skipped, failed := run.Counts()
	log.Info().Int("created", created).Int("skipped", skipped).Int("failed", failed).Msg("done")
	if failed > 0 {
		os.Exit(1)
	}
}
