package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/consecrate/autocard/internal/dom"
)

const blankRun = "_________"

// formatDropdown renders a dropdown-selection widget as static text. Each
// option's content is walked with a minimal config so embedded math inside
// an option still resolves.
func (w *walker) formatDropdown(n *html.Node) string {
	var texts []string
	for _, opt := range dom.FindAll(n, dom.ByClass(dom.ClassDropdownItem)) {
		var frags []string
		w.walk(opt, &frags, walkConfig{})
		if t := strings.TrimSpace(strings.Join(frags, " ")); t != "" {
			texts = append(texts, t)
		}
	}
	return w.formatOptions(texts)
}

// formatSelect renders a native select element using the same short/long
// heuristic over its option texts.
func (w *walker) formatSelect(n *html.Node) string {
	var texts []string
	for _, opt := range dom.FindAll(n, dom.ByTag("option")) {
		if t := strings.TrimSpace(dom.Text(opt)); t != "" {
			texts = append(texts, t)
		}
	}
	return w.formatOptions(texts)
}

// formatOptions joins option texts inline when every option is short,
// otherwise renders a blank with the options listed after it.
func (w *walker) formatOptions(texts []string) string {
	if len(texts) == 0 {
		return blankRun
	}
	short := true
	for _, t := range texts {
		if len([]rune(t)) >= w.shortLen {
			short = false
			break
		}
	}
	if short {
		return strings.Join(texts, "/")
	}
	return blankRun + " (" + strings.Join(texts, " / ") + ")"
}
