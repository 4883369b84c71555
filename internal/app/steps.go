package app

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/consecrate/autocard/internal/extract"
)

// marker is the hidden duplicate-detection comment embedded as the first
// bytes of a card's front field. It stays stable across formatting
// settings, so existence lookups are independent of how a card renders.
func marker(slug, step string) string {
	return fmt.Sprintf("<!-- %s:%s:%s -->", markerNamespace, slug, step)
}

// markerQuery builds the field-scoped search for an exact marker.
func markerQuery(mark string) string {
	return `"Front:*` + mark + `*"`
}

// stepName derives a stable name for a step: its data-step attribute, its
// first heading, or a positional fallback.
func stepName(step *goquery.Selection, index int) string {
	if name, ok := step.Attr("data-step"); ok && strings.TrimSpace(name) != "" {
		return slugify(name)
	}
	if heading := step.Find("h2, h3").First(); heading.Length() > 0 {
		if name := slugify(heading.Text()); name != "" {
			return name
		}
	}
	return fmt.Sprintf("step-%d", index+1)
}

// slugify lowercases and reduces text to hyphen-separated alphanumerics.
func slugify(s string) string {
	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// mergeResults concatenates extraction results from multiple regions of
// one card face, renumbering image placeholders into a single sequence so
// substitution stays unambiguous across regions. Placeholders within one
// region are renumbered highest-first: every new index is at least its old
// one, so a freshly written token can never match a later replacement.
func mergeResults(results ...extract.Result) (string, []extract.ImageRef) {
	var parts []string
	var images []extract.ImageRef
	for _, res := range results {
		text := res.Content
		if text == "" {
			continue
		}
		offset := len(images)
		renumbered := make([]extract.ImageRef, len(res.Images))
		for i := len(res.Images) - 1; i >= 0; i-- {
			ref := res.Images[i]
			np := fmt.Sprintf("{{IMG_%d}}", offset+i)
			text = strings.Replace(text, ref.Placeholder, np, 1)
			renumbered[i] = extract.ImageRef{Placeholder: np, SourceURL: ref.SourceURL}
		}
		images = append(images, renumbered...)
		parts = append(parts, text)
	}
	return strings.Join(parts, "<br><br>"), images
}
