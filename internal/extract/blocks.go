package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/consecrate/autocard/internal/dom"
)

// Attribute allow-lists for re-serialized tables. The style attribute is
// copied verbatim and never defaulted: the source page distinguishes
// invisible layout tables from visible data tables purely through style,
// and an injected border would corrupt that distinction.
var (
	tableAttrs = []string{"rules", "cellpadding", "cellspacing", "border", "align"}
	cellAttrs  = []string{"style", "colspan", "rowspan", "align", "valign"}
)

// cellConfig is the stricter config used inside cells and list items: cell
// content is inline by construction, so block breaks and list handling stay
// off and a nested structure recurses through the serializers instead.
func cellConfig(cfg walkConfig) walkConfig {
	return walkConfig{labelFormat: cfg.labelFormat, paragraphMath: cfg.paragraphMath}
}

// serializeTable re-emits a table subtree as static markup, recursively
// walking cell contents. Rows are taken in document order whether they sit
// directly under the table or under thead/tbody sections.
func (w *walker) serializeTable(t *html.Node, cfg walkConfig) string {
	var b strings.Builder
	b.WriteString("<table")
	writeAttr(&b, "style", dom.Attr(t, "style"))
	for _, name := range tableAttrs {
		writeAttr(&b, name, dom.Attr(t, name))
	}
	b.WriteString(">")
	for _, row := range tableRows(t) {
		b.WriteString("<tr")
		writeAttr(&b, "style", dom.Attr(row, "style"))
		b.WriteString(">")
		for _, cell := range rowCells(row) {
			b.WriteString("<" + cell.Data)
			for _, name := range cellAttrs {
				writeAttr(&b, name, dom.Attr(cell, name))
			}
			b.WriteString(">")
			b.WriteString(w.walkInline(cell, cellConfig(cfg)))
			b.WriteString("</" + cell.Data + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// serializeList re-emits an ol/ul subtree, walking only direct list items.
// An item's content is walked with list handling still enabled so nested
// lists serialize recursively, but without block breaks that would split
// the item markup.
func (w *walker) serializeList(l *html.Node, cfg walkConfig) string {
	itemCfg := cellConfig(cfg)
	itemCfg.lists = true
	var b strings.Builder
	b.WriteString("<" + l.Data + ">")
	for c := l.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		b.WriteString("<li>")
		b.WriteString(w.walkInline(c, itemCfg))
		b.WriteString("</li>")
	}
	b.WriteString("</" + l.Data + ">")
	return b.String()
}

// formatChoiceRow renders one row of a choices table: the first cell is the
// option label, remaining cells are the option content, and the row ends
// with a line separator. Rows with fewer than two cells fall back to plain
// content extraction.
func (w *walker) formatChoiceRow(row *html.Node, cfg walkConfig) string {
	cells := rowCells(row)
	if len(cells) < 2 {
		return w.walkInline(row, cellConfig(cfg))
	}
	label := strings.TrimSpace(w.walkInline(cells[0], cellConfig(cfg)))
	var parts []string
	for _, cell := range cells[1:] {
		if t := w.walkInline(cell, cellConfig(cfg)); t != "" {
			parts = append(parts, t)
		}
	}
	return formatLabel(label, cfg.labelFormat) + " " + strings.Join(parts, " ") + "\n"
}

// formatLabel applies the configured choice-label style.
func formatLabel(label, format string) string {
	switch format {
	case "dot":
		return label + "."
	case "bracket":
		return "(" + label + ")"
	default:
		return label + ")"
	}
}

// walkInline walks a subtree into a fresh fragment sink and joins the
// result for embedding inside markup. Images found inside still register
// on the shared image sequence.
func (w *walker) walkInline(n *html.Node, cfg walkConfig) string {
	var frags []string
	w.descend(n, &frags, cfg)
	return strings.TrimSpace(strings.Join(frags, " "))
}

func writeAttr(b *strings.Builder, name, val string) {
	if val == "" {
		return
	}
	b.WriteString(" " + name + `="` + html.EscapeString(val) + `"`)
}

// tableRows collects tr elements in document order whether nested under
// the table itself, a tbody, or a thead.
func tableRows(t *html.Node) []*html.Node {
	var rows []*html.Node
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "tr":
			rows = append(rows, c)
		case "tbody", "thead":
			for r := c.FirstChild; r != nil; r = r.NextSibling {
				if r.Type == html.ElementNode && r.Data == "tr" {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

func rowCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	return cells
}
