// Package extract converts a lesson page's DOM subtrees into a single
// normalized rich-text string plus a side list of discovered image
// references. It handles the page's structural idioms (two generations of
// math rendering, choice tables, dropdown widgets, free-response boxes) and
// degrades to plain text extraction when those idioms are absent.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/consecrate/autocard/internal/dom"
)

// ImageRef pairs a placeholder token embedded in extracted text with the
// source URL it stands for. Placeholders are {{IMG_n}} with n assigned in
// discovery order within one extraction, which makes later substring
// substitution unambiguous.
type ImageRef struct {
	Placeholder string
	SourceURL   string
}

// Result is the synchronous output of one extraction: the normalized text
// and the images it references, in first-encounter order.
type Result struct {
	Content string
	Images  []ImageRef
	// Math counts resolved math expressions, useful for run statistics.
	Math int
}

// Options control per-call formatting choices exposed to callers.
type Options struct {
	// LabelFormat selects how choice labels render: "paren" (A)), "dot"
	// (A.) or "bracket" ((A)). Empty means "paren".
	LabelFormat string
	// Choices marks the root as a choices region: table rows become
	// labeled options and generic table serialization is suppressed.
	Choices bool
	// ParagraphMath pads block math with blank lines instead of keeping it
	// compact on the surrounding line.
	ParagraphMath bool
	// ShortOptionLen is the length under which every dropdown option must
	// fall for the inline "a/b/c" rendering. Zero means the default of 5.
	ShortOptionLen int
}

const defaultShortOptionLen = 5

// freeResponsePlaceholder replaces free-response input boxes regardless of
// their content, so a student's transient input never leaks into a card.
const freeResponsePlaceholder = `\(\boxed{\;?\;}\)`

// walkConfig is the per-recursion-depth configuration. Nested contexts use
// stricter configs than the top-level call: a table cell must not emit
// paragraph breaks that would corrupt the cell markup.
type walkConfig struct {
	blockBreaks   bool
	lists         bool
	choices       bool
	labelFormat   string
	paragraphMath bool
}

// walker accumulates cross-context state for one extraction call. Image
// numbering and the math counter are global to the call while fragment
// sinks are per-context, so table cells and list items contribute images to
// the shared sequence without restarting the counter.
type walker struct {
	images   []ImageRef
	math     int
	shortLen int
}

// Extract walks the subtree rooted at root and returns the normalized text
// and discovered images. It is fully synchronous and never mutates the
// tree; image bytes are resolved later by the media materializer.
func Extract(root *html.Node, opts Options) Result {
	w := &walker{shortLen: opts.ShortOptionLen}
	if w.shortLen <= 0 {
		w.shortLen = defaultShortOptionLen
	}
	cfg := walkConfig{
		blockBreaks:   true,
		lists:         true,
		choices:       opts.Choices,
		labelFormat:   opts.LabelFormat,
		paragraphMath: opts.ParagraphMath,
	}
	var frags []string
	w.walk(root, &frags, cfg)
	return Result{
		Content: Normalize(frags),
		Images:  w.images,
		Math:    w.math,
	}
}

// nextImage records a discovered image and returns its placeholder token.
func (w *walker) nextImage(src string) string {
	ph := fmt.Sprintf("{{IMG_%d}}", len(w.images))
	w.images = append(w.images, ImageRef{Placeholder: ph, SourceURL: src})
	return ph
}

func push(frags *[]string, s string) {
	if s != "" {
		*frags = append(*frags, s)
	}
}

// walk dispatches one node and recurses. The case order is precedence:
// suppressed kinds come before widget kinds, widgets before math, math
// before the structural serializers, and anything unrecognized falls
// through to plain recursive descent rather than being dropped.
func (w *walker) walk(n *html.Node, frags *[]string, cfg walkConfig) {
	switch dom.Classify(n) {
	case dom.KindText:
		// Literal newlines in markup are incidental whitespace; only the
		// walker itself emits newline markers with break meaning.
		push(frags, strings.Join(strings.Fields(n.Data), " "))

	case dom.KindIgnored, dom.KindStyleScript, dom.KindInjectedUI, dom.KindAssistiveMath:
		// Style/script carry no content, injected UI is our own output,
		// and the assistive MathML mirror would double-count math.

	case dom.KindFreeResponse:
		push(frags, freeResponsePlaceholder)

	case dom.KindDropdown:
		push(frags, w.formatDropdown(n))

	case dom.KindSelect:
		push(frags, w.formatSelect(n))

	case dom.KindTableRow:
		if cfg.choices {
			push(frags, w.formatChoiceRow(n, cfg))
			return
		}
		w.descend(n, frags, cfg)

	case dom.KindImage:
		if src := dom.Attr(n, "src"); src != "" {
			push(frags, w.nextImage(src))
		}

	case dom.KindMathGlyph:
		push(frags, readGlyph(n))

	case dom.KindMathModern, dom.KindMathLegacy:
		// Fill-in-the-blank math embeds a dropdown widget inside the
		// rendered expression; only the inner expression node is walked
		// so both static glyphs and the widget get processed.
		if dom.FindFirst(n, dom.ByClass(dom.ClassDropdown)) != nil {
			if expr := mathExpressionNode(n); expr != nil {
				w.descend(expr, frags, cfg)
				return
			}
			w.descend(n, frags, cfg)
			return
		}
		if src, ok := ResolveMathSource(n); ok {
			w.math++
			push(frags, renderMath(src, cfg))
			return
		}
		push(frags, strings.Join(strings.Fields(dom.Text(n)), " "))

	case dom.KindTable:
		if cfg.choices {
			// The choices path formats rows individually.
			w.descend(n, frags, cfg)
			return
		}
		push(frags, w.serializeTable(n, cfg))

	case dom.KindList:
		if cfg.lists {
			push(frags, w.serializeList(n, cfg))
			return
		}
		w.descend(n, frags, cfg)

	default:
		w.descend(n, frags, cfg)
		if cfg.blockBreaks && isBlockTag(n.Data) && len(*frags) > 0 {
			*frags = append(*frags, "\n\n")
		}
	}
}

func (w *walker) descend(n *html.Node, frags *[]string, cfg walkConfig) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, frags, cfg)
	}
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// mathExpressionNode locates the inner expression node of a rendering
// container: <mjx-math> for the modern generation, class "math" for the
// legacy one.
func mathExpressionNode(n *html.Node) *html.Node {
	if expr := dom.FindFirst(n, dom.ByTag("mjx-math")); expr != nil {
		return expr
	}
	return dom.FindFirst(n, dom.ByClass("math"))
}
