package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind classifies a parsed node into the categories the walker dispatches on.
// Classification happens once per node so that precedence lives in a single
// switch instead of repeated string comparisons scattered through the walk.
type Kind int

const (
	KindText Kind = iota
	KindIgnored
	KindStyleScript
	KindInjectedUI
	KindAssistiveMath
	KindFreeResponse
	KindDropdown
	KindSelect
	KindTableRow
	KindImage
	KindMathGlyph
	KindMathModern
	KindMathLegacy
	KindTable
	KindList
	KindGeneric
)

const (
	// ClassInjectedUI marks elements this tool injects into a page; the
	// walker must never capture its own controls.
	ClassInjectedUI = "autocard-ui"
	// ClassDropdown is the dropdown-selection widget container.
	ClassDropdown = "dropdown-select"
	// ClassDropdownItem marks one option inside a dropdown widget.
	ClassDropdownItem = "dropdown-item"
	// ClassMathLegacy is the legacy rendering generation's wrapper class.
	ClassMathLegacy = "MathJax"
	// FreeResponsePrefix is the reserved id prefix of free-response boxes.
	FreeResponsePrefix = "answer-box"
)

// Classify maps a node to its dispatch kind. Order of checks mirrors the
// walker's precedence: suppression classes win over tag-based kinds, and a
// legacy math wrapper wins over the generic element fallthrough.
func Classify(n *html.Node) Kind {
	switch n.Type {
	case html.TextNode:
		return KindText
	case html.ElementNode:
	default:
		return KindIgnored
	}
	switch n.Data {
	case "style", "script":
		return KindStyleScript
	case "mjx-assistive-mml":
		return KindAssistiveMath
	}
	if HasClass(n, ClassInjectedUI) {
		return KindInjectedUI
	}
	if strings.HasPrefix(Attr(n, "id"), FreeResponsePrefix) {
		return KindFreeResponse
	}
	if HasClass(n, ClassDropdown) {
		return KindDropdown
	}
	switch n.Data {
	case "select":
		return KindSelect
	case "tr":
		return KindTableRow
	case "img":
		return KindImage
	case "mjx-c":
		return KindMathGlyph
	case "mjx-container":
		return KindMathModern
	case "table":
		return KindTable
	case "ol", "ul":
		return KindList
	}
	if HasClass(n, ClassMathLegacy) {
		return KindMathLegacy
	}
	return KindGeneric
}

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute exists, even with an empty value.
func HasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr writes an attribute, replacing a previous value.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// HasClass reports whether the element's class list contains name.
func HasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of the subtree, the same value
// a browser's textContent would produce.
func Text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

// FindFirst returns the first descendant (depth-first, document order)
// matching pred, or nil.
func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := FindFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll collects all descendant elements matching pred in document order.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var rec func(*html.Node)
	rec = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && pred(c) {
				out = append(out, c)
			}
			rec(c)
		}
	}
	rec(n)
	return out
}

// ByTag returns a predicate matching elements by tag name.
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

// ByClass returns a predicate matching elements carrying the class.
func ByClass(name string) func(*html.Node) bool {
	return func(n *html.Node) bool { return HasClass(n, name) }
}

// PrevElementOrScript returns the nearest preceding sibling that is an
// element, skipping whitespace-only text nodes on the way. The legacy math
// generation keeps its source in a script sibling immediately before the
// rendered wrapper, so "immediately preceding" tolerates formatting noise.
func PrevElementOrScript(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) != "" {
			return nil
		}
	}
	return nil
}
