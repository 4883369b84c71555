package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/consecrate/autocard/internal/dom"
)

// MathSource is the recovered original source of a rendered expression.
// Exactly one of TeX and MathML is set: TeX is wrapped in delimiters when
// emitted, MathML is self-delimiting and emitted verbatim.
type MathSource struct {
	TeX    string
	MathML string
	Block  bool
}

// Attribute names the annotation pre-pass writes onto rendering containers.
const (
	AttrTeX    = "data-tex"
	AttrMathML = "data-mathml"
)

// ResolveMathSource recovers the source expression of a math rendering
// container of either generation. The two generations expose source
// differently and inconsistently, so resolution is a layered fallback:
//
//  1. a legacy wrapper searches its descendants for a modern re-render
//     carrying an annotated TeX source (modern re-renders are more
//     reliable than the legacy wrapper's own annotations),
//  2. then for a descendant carrying annotated MathML,
//  3. then the container's own TeX annotation,
//  4. then its own MathML annotation,
//  5. then the legacy inline-source script preceding the wrapper.
//
// When everything misses it returns ok=false and the caller falls back to
// the container's raw text content.
func ResolveMathSource(n *html.Node) (MathSource, bool) {
	if dom.Classify(n) == dom.KindMathLegacy {
		if child := dom.FindFirst(n, modernWithAttr(AttrTeX)); child != nil {
			return MathSource{TeX: dom.Attr(child, AttrTeX), Block: isBlockMath(n) || isBlockMath(child)}, true
		}
		if child := dom.FindFirst(n, modernWithAttr(AttrMathML)); child != nil {
			return MathSource{MathML: dom.Attr(child, AttrMathML), Block: isBlockMath(n) || isBlockMath(child)}, true
		}
	}
	if tex := dom.Attr(n, AttrTeX); tex != "" {
		return MathSource{TeX: tex, Block: isBlockMath(n)}, true
	}
	if mml := dom.Attr(n, AttrMathML); mml != "" {
		return MathSource{MathML: mml, Block: isBlockMath(n)}, true
	}
	if prev := dom.PrevElementOrScript(n); prev != nil && prev.Data == "script" {
		if typ := dom.Attr(prev, "type"); strings.HasPrefix(typ, "math/tex") {
			return MathSource{
				TeX:   strings.TrimSpace(dom.Text(prev)),
				Block: strings.Contains(typ, "mode=display"),
			}, true
		}
	}
	return MathSource{}, false
}

// modernWithAttr matches modern-generation re-renders carrying the given
// annotation. Legacy wrappers trust these over their own attributes.
func modernWithAttr(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == "mjx-container" && dom.Attr(n, name) != ""
	}
}

// isBlockMath reports whether a container renders in display (block) mode.
func isBlockMath(n *html.Node) bool {
	if dom.Attr(n, "display") == "true" {
		return true
	}
	return dom.HasClass(n, "MJX-block") || dom.HasClass(n, "MathJax_Display")
}

// renderMath serializes a resolved source for embedding in card text. TeX
// gets delimiter wrapping; MathML is emitted verbatim except that a block
// expression whose root tag lacks a display attribute gets one injected,
// since the downstream renderer would otherwise lay it out inline.
func renderMath(src MathSource, cfg walkConfig) string {
	if src.MathML != "" {
		if src.Block {
			return ensureBlockMathML(src.MathML)
		}
		return src.MathML
	}
	if src.Block {
		if cfg.paragraphMath {
			return "\n\n" + `\[` + src.TeX + `\]` + "\n\n"
		}
		return `\[` + src.TeX + `\]`
	}
	return `\(` + src.TeX + `\)`
}

func ensureBlockMathML(mml string) string {
	start := strings.Index(mml, "<math")
	if start < 0 {
		return mml
	}
	end := strings.Index(mml[start:], ">")
	if end < 0 {
		return mml
	}
	if strings.Contains(mml[start:start+end], "display") {
		return mml
	}
	insert := start + len("<math")
	return mml[:insert] + ` display="block"` + mml[insert:]
}

var styleContentRe = regexp.MustCompile(`content:\s*(?:'([^']*)'|"([^"]*)")`)

// readGlyph recovers the rendered character of a glyph element. One
// rendering path draws characters via generated style content instead of
// DOM text; the character survives either as an inline content declaration
// or as the hex codepoint suffix of the glyph class.
func readGlyph(n *html.Node) string {
	if m := styleContentRe.FindStringSubmatch(dom.Attr(n, "style")); m != nil {
		val := m[1]
		if val == "" {
			val = m[2]
		}
		return norm.NFC.String(strings.Trim(val, `"'`))
	}
	for _, class := range strings.Fields(dom.Attr(n, "class")) {
		hex := strings.TrimPrefix(class, "mjx-c")
		if hex == class || hex == "" {
			continue
		}
		cp, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			continue
		}
		return norm.NFC.String(string(rune(cp)))
	}
	return ""
}
