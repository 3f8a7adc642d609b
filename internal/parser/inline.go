package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docpass/internal/doctree"
)

// inlineRe matches [[Page]], [[Page#anchor]] and #tag references inside a text run.
var inlineRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]|#([\p{L}\p{N}_\-/]+)`)

// splitInline breaks a text run into Text, InternalLink and HashTag nodes.
// A '#' only starts a tag at the beginning of the run or after whitespace.
func splitInline(s string) []doctree.Node {
	if s == "" {
		return nil
	}
	var out []doctree.Node
	last := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		var node doctree.Node
		switch {
		case m[2] >= 0:
			title, anchor, _ := strings.Cut(s[m[2]:m[3]], "#")
			node = &doctree.InternalLink{Title: strings.TrimSpace(title), Anchor: anchor}
		case m[4] >= 0:
			if start > 0 {
				r, _ := utf8.DecodeLastRuneInString(s[:start])
				if !unicode.IsSpace(r) {
					continue
				}
			}
			node = &doctree.HashTag{Value: s[m[4]:m[5]]}
		}
		if start > last {
			out = append(out, doctree.NewText(s[last:start]))
		}
		out = append(out, node)
		last = end
	}
	if last < len(s) {
		out = append(out, doctree.NewText(s[last:]))
	}
	return out
}
