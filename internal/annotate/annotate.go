// Package annotate implements the math-source annotation pre-pass. The
// rendering engine's original expressions survive a saved page only as
// side-channel remnants (inline source scripts for the legacy generation,
// assistive MathML mirrors for the modern one); this pass copies them onto
// the rendering containers as data attributes so the extraction walker can
// resolve sources without re-deriving them per node.
//
// The pass runs synchronously to completion before any walk starts. The
// walker reads only the attributes written here, so ordering them this way
// removes any chance of reading a half-annotated tree.
package annotate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/consecrate/autocard/internal/dom"
	"github.com/consecrate/autocard/internal/extract"
)

// markerAttr guards against re-running the pass on an already annotated
// document, mirroring the once-per-page injection guard of the in-browser
// collaborator.
const markerAttr = "data-autocard-annotated"

// Apply annotates all math rendering containers in the document and
// returns the number of containers annotated. Calling it twice on the same
// document is a no-op.
func Apply(doc *goquery.Document) int {
	root := doc.Selection.Nodes
	if len(root) == 0 {
		return 0
	}
	if dom.HasAttr(root[0], markerAttr) {
		return 0
	}
	dom.SetAttr(root[0], markerAttr, "1")

	count := 0
	doc.Find("mjx-container, span.MathJax").Each(func(_ int, sel *goquery.Selection) {
		if annotateContainer(sel.Nodes[0]) {
			count++
		}
	})
	return count
}

// annotateContainer recovers one container's source. Existing annotations
// are left alone so a page saved with annotations intact wins over our
// reconstruction.
func annotateContainer(n *html.Node) bool {
	if dom.Attr(n, extract.AttrTeX) != "" || dom.Attr(n, extract.AttrMathML) != "" {
		return false
	}
	// Legacy generation keeps the expression in an inline source script
	// immediately before the rendered wrapper.
	if prev := dom.PrevElementOrScript(n); prev != nil && prev.Data == "script" {
		if typ := dom.Attr(prev, "type"); strings.HasPrefix(typ, "math/tex") {
			dom.SetAttr(n, extract.AttrTeX, strings.TrimSpace(dom.Text(prev)))
			if strings.Contains(typ, "mode=display") {
				dom.SetAttr(n, "display", "true")
			}
			return true
		}
	}
	// Modern generation mirrors the expression as assistive MathML.
	if mirror := dom.FindFirst(n, dom.ByTag("mjx-assistive-mml")); mirror != nil {
		if math := dom.FindFirst(mirror, dom.ByTag("math")); math != nil {
			if mml := renderNode(math); mml != "" {
				dom.SetAttr(n, extract.AttrMathML, mml)
				return true
			}
		}
	}
	return false
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
