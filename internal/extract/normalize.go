package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Break markup emitted into card fields. The note renderer treats field
// content as HTML, so newline markers accumulated during the walk become
// explicit break tags at the end of normalization.
const (
	paragraphBreak = "<br><br>"
	lineBreak      = "<br>"
)

var (
	hspaceRe      = regexp.MustCompile(`[ \t]+`)
	spaceAroundNL = regexp.MustCompile(` *\n *`)
	manyNL        = regexp.MustCompile(`\n{3,}`)
)

// Normalize joins a fragment sequence into the final field text. The steps
// run in a fixed order because later ones assume the shape left by earlier
// ones: fragments are joined with single spaces, horizontal whitespace is
// collapsed, spaces adjacent to newline markers are trimmed, newline runs
// are capped at two, and the surviving markers become break tags. The
// pipeline is idempotent: running it on its own output changes nothing.
func Normalize(frags []string) string {
	s := strings.Join(frags, " ")
	s = hspaceRe.ReplaceAllString(s, " ")
	s = spaceAroundNL.ReplaceAllString(s, "\n")
	s = manyNL.ReplaceAllString(s, "\n\n")
	// Leading and trailing break markers carry no content; dropping them
	// here keeps a trailing paragraph break out of the final markup.
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n\n", paragraphBreak)
	s = strings.ReplaceAll(s, "\n", lineBreak)
	return norm.NFC.String(strings.TrimSpace(s))
}
