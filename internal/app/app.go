// Package app wires the pipeline together: load the lesson page, annotate
// math containers, locate lesson steps, extract card content, materialize
// images, and create notes through the note store.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/consecrate/autocard/internal/annotate"
	"github.com/consecrate/autocard/internal/cache"
	"github.com/consecrate/autocard/internal/extract"
	"github.com/consecrate/autocard/internal/fetch"
	"github.com/consecrate/autocard/internal/hint"
	"github.com/consecrate/autocard/internal/media"
	"github.com/consecrate/autocard/internal/notestore"
	"github.com/consecrate/autocard/internal/report"
)

const (
	defaultAnkiURL   = "http://127.0.0.1:8765"
	defaultNoteModel = "Basic"
	markerNamespace  = "autocard"
	userAgent        = "autocard/1.0"
)

// ErrDeckNotFound means the configured deck does not exist in the
// collection; failing early beats creating notes into a typo.
var ErrDeckNotFound = errors.New("deck not found")

// ErrMissingRegion means a step lacks its front or back region. The
// affected card is aborted before any note-storage call; other steps
// continue.
var ErrMissingRegion = errors.New("missing front or back region")

// Run processes one lesson page end to end and returns the per-step
// outcomes. Setup failures (page load, deck validation) return an error;
// per-card failures are recorded in the run instead.
func Run(ctx context.Context, cfg Config) (*report.Run, error) {
	if cfg.AnkiURL == "" {
		cfg.AnkiURL = defaultAnkiURL
	}
	if cfg.NoteModel == "" {
		cfg.NoteModel = defaultNoteModel
	}
	cfg.Selectors.fillDefaults()

	if cfg.CacheClear && cfg.CacheDir != "" {
		if err := cache.Clear(cfg.CacheDir); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
	}
	if cfg.CacheMaxAge > 0 && cfg.CacheDir != "" {
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
			log.Debug().Int("entries", n).Msg("purged stale cache entries")
		}
	}

	fetcher := &fetch.Client{
		UserAgent:         userAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
	}
	if cfg.CacheDir != "" {
		fetcher.Cache = &cache.HTTPCache{Dir: cfg.CacheDir}
	}

	pageHTML, base, err := loadPage(ctx, fetcher, cfg)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	// The walker only reads annotation attributes, so the pre-pass runs
	// to completion before any extraction starts.
	annotated := annotate.Apply(doc)
	log.Debug().Int("containers", annotated).Msg("annotated math containers")

	slug := slugify(strings.TrimSpace(doc.Find(cfg.Selectors.Title).First().Text()))
	if slug == "" {
		slug = "lesson"
	}

	store := notestore.New(cfg.AnkiURL, 10*time.Second)
	run := &report.Run{Lesson: slug, Deck: cfg.Deck, StartedAt: time.Now()}

	if cfg.Purge {
		return run, purge(ctx, store, run, slug)
	}

	if !cfg.DryRun {
		if err := validateDeck(ctx, store, cfg.Deck); err != nil {
			return nil, err
		}
	}

	materializer := &media.Materializer{
		Fetch:            fetcher,
		Store:            store,
		Base:             base,
		OpaqueBackground: cfg.DarkImageFix,
	}

	var hints *hint.Generator
	if cfg.HintModel != "" {
		hints = &hint.Generator{
			Client: hint.NewOpenAIClient(cfg.HintBaseURL, cfg.HintAPIKey),
			Model:  cfg.HintModel,
		}
		if cfg.CacheDir != "" {
			hints.Cache = &cache.HintCache{Dir: cfg.CacheDir}
		}
	}

	doc.Find(cfg.Selectors.Step).Each(func(i int, step *goquery.Selection) {
		name := stepName(step, i)
		outcome := processStep(ctx, cfg, step, slug, name, store, materializer, hints)
		run.Outcomes = append(run.Outcomes, outcome)
	})
	if len(run.Outcomes) == 0 {
		log.Warn().Str("selector", cfg.Selectors.Step).Msg("no lesson steps found on page")
	}

	if cfg.ReportPath != "" {
		if err := report.WriteMarkdown(run, cfg.ReportPath); err != nil {
			log.Warn().Err(err).Msg("write report")
		}
	}
	if cfg.ReportPDFPath != "" {
		if err := report.WritePDF(run, cfg.ReportPDFPath); err != nil {
			log.Warn().Err(err).Msg("write pdf report")
		}
	}
	return run, nil
}

// processStep builds and stores one card. Failures degrade to an outcome
// instead of propagating: one broken step must not sink the lesson.
func processStep(ctx context.Context, cfg Config, step *goquery.Selection, slug, name string, store *notestore.Client, materializer *media.Materializer, hints *hint.Generator) report.Outcome {
	logger := log.With().Str("step", name).Logger()

	frontSel := step.Find(cfg.Selectors.Front).First()
	backSel := step.Find(cfg.Selectors.Back).First()
	if frontSel.Length() == 0 || backSel.Length() == 0 {
		logger.Error().Msg("missing front or back region")
		return report.Outcome{Step: name, Status: report.StatusFailed, Reason: ErrMissingRegion.Error()}
	}

	opts := extract.Options{
		LabelFormat:    cfg.LabelFormat,
		ParagraphMath:  cfg.ParagraphMath,
		ShortOptionLen: cfg.ShortOptionLen,
	}

	frontParts := []extract.Result{extract.Extract(frontSel.Nodes[0], opts)}
	if graphic := step.Find(cfg.Selectors.Graphic).First(); graphic.Length() > 0 {
		frontParts = append(frontParts, extract.Extract(graphic.Nodes[0], opts))
	}
	if cfg.IncludeChoices {
		if choices := step.Find(cfg.Selectors.Choices).First(); choices.Length() > 0 {
			choiceOpts := opts
			choiceOpts.Choices = true
			frontParts = append(frontParts, extract.Extract(choices.Nodes[0], choiceOpts))
		}
	}
	front, frontImages := mergeResults(frontParts...)
	backRes := extract.Extract(backSel.Nodes[0], opts)

	mark := marker(slug, name)
	if cfg.DryRun {
		logger.Info().Int("images", len(frontImages)+len(backRes.Images)).Msg("dry run, card not created")
		return report.Outcome{Step: name, Status: report.StatusSkipped, Reason: "dry run"}
	}

	// Duplicate detection keys on the marker alone, so formatting
	// settings can change without re-creating existing cards.
	existing, err := store.FindNotes(ctx, markerQuery(mark))
	if err != nil {
		logger.Error().Err(err).Msg("duplicate lookup failed")
		return report.Outcome{Step: name, Status: report.StatusFailed, Reason: err.Error()}
	}
	if len(existing) > 0 {
		if !cfg.Replace {
			logger.Info().Msg("card already exists")
			return report.Outcome{Step: name, Status: report.StatusSkipped, Reason: "already exists"}
		}
		if err := store.DeleteNotes(ctx, existing); err != nil {
			logger.Error().Err(err).Msg("replace failed")
			return report.Outcome{Step: name, Status: report.StatusFailed, Reason: err.Error()}
		}
	}

	front, err = materializer.Materialize(ctx, front, frontImages)
	if err != nil {
		return report.Outcome{Step: name, Status: report.StatusFailed, Reason: err.Error()}
	}
	back, err := materializer.Materialize(ctx, backRes.Content, backRes.Images)
	if err != nil {
		return report.Outcome{Step: name, Status: report.StatusFailed, Reason: err.Error()}
	}

	if hints != nil {
		if h, err := hints.Hint(ctx, front, back); err == nil {
			back += "<br><br><i>" + h + "</i>"
		} else {
			logger.Warn().Err(err).Msg("hint generation skipped")
		}
	}

	id, err := store.AddNote(ctx, notestore.Note{
		Deck:   cfg.Deck,
		Model:  cfg.NoteModel,
		Fields: map[string]string{"Front": mark + front, "Back": back},
		Tags:   append([]string{markerNamespace, slug}, cfg.Tags...),
	})
	if err != nil {
		logger.Error().Err(err).Msg("note creation failed")
		return report.Outcome{Step: name, Status: report.StatusFailed, Reason: err.Error()}
	}
	logger.Info().Int64("note", id).Msg("card created")
	return report.Outcome{
		Step:   name,
		Status: report.StatusCreated,
		NoteID: id,
		Images: len(frontImages) + len(backRes.Images),
	}
}

func purge(ctx context.Context, store *notestore.Client, run *report.Run, slug string) error {
	query := fmt.Sprintf(`"Front:*<!-- %s:%s:*"`, markerNamespace, slug)
	ids, err := store.FindNotes(ctx, query)
	if err != nil {
		return fmt.Errorf("purge lookup: %w", err)
	}
	if err := store.DeleteNotes(ctx, ids); err != nil {
		return fmt.Errorf("purge delete: %w", err)
	}
	log.Info().Int("notes", len(ids)).Str("lesson", slug).Msg("purged lesson notes")
	return nil
}

func validateDeck(ctx context.Context, store *notestore.Client, deck string) error {
	if deck == "" {
		return fmt.Errorf("%w: no deck configured", ErrDeckNotFound)
	}
	names, err := store.DeckNames(ctx)
	if err != nil {
		return fmt.Errorf("list decks: %w", err)
	}
	for _, n := range names {
		if n == deck {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrDeckNotFound, deck)
}

func loadPage(ctx context.Context, fetcher *fetch.Client, cfg Config) ([]byte, *url.URL, error) {
	var base *url.URL
	if raw := cfg.BaseURL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("parse base url: %w", err)
		}
		base = u
	}
	if strings.HasPrefix(cfg.Page, "http://") || strings.HasPrefix(cfg.Page, "https://") {
		body, err := fetcher.GetPage(ctx, cfg.Page)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch page: %w", err)
		}
		if base == nil {
			base, _ = url.Parse(cfg.Page)
		}
		return body, base, nil
	}
	body, err := os.ReadFile(cfg.Page)
	if err != nil {
		return nil, nil, fmt.Errorf("read page: %w", err)
	}
	return body, base, nil
}
