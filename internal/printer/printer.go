// Package printer renders a document tree back to Markdown.
package printer

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docpass/internal/doctree"
)

// Markdown renders page as CommonMark with GFM tables. Front matter is not
// emitted. Blocks are separated by a blank line and the output ends with a
// single newline unless the page is empty.
func Markdown(page *doctree.Page) string {
	if page == nil || len(page.Nodes) == 0 {
		return ""
	}
	return strings.Join(blocks(page.Nodes), "\n\n") + "\n"
}

// blocks renders nodes at block level. Consecutive inline nodes are grouped
// into one paragraph.
func blocks(nodes []doctree.Node) []string {
	var out []string
	var run []doctree.Node
	flush := func() {
		if len(run) > 0 {
			out = append(out, inlines(run))
			run = nil
		}
	}
	for _, n := range nodes {
		s, ok := block(n)
		if !ok {
			run = append(run, n)
			continue
		}
		flush()
		out = append(out, s)
	}
	flush()
	return out
}

func block(n doctree.Node) (string, bool) {
	switch n := n.(type) {
	case *doctree.Heading:
		level := min(max(n.Level, 1), 6)
		return strings.Repeat("#", level) + " " + n.Text, true
	case *doctree.Paragraph:
		return inlines(n.Children), true
	case *doctree.List:
		return list(n), true
	case *doctree.ListItem:
		return item("- ", n), true
	case *doctree.Table:
		return table(n), true
	case *doctree.CodeBlock:
		return "```" + n.FileName + "\n" + joinLines(n.Lines) + "```", true
	case *doctree.BlockQuote:
		return quote(n.Value), true
	case *doctree.Math:
		return "$$\n" + n.Value + "\n$$", true
	}
	return "", false
}

func list(l *doctree.List) string {
	items := make([]string, 0, len(l.Items))
	for i, it := range l.Items {
		marker := "- "
		if l.Ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		items = append(items, item(marker, it))
	}
	return strings.Join(items, "\n")
}

func item(marker string, it *doctree.ListItem) string {
	body := strings.Join(blocks(it.Children), "\n")
	return prefixLines(body, marker, strings.Repeat(" ", len(marker)))
}

func table(t *doctree.Table) string {
	header, rows := t.Header, t.Rows
	if header == nil && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	if header == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(row(header))
	sb.WriteByte('\n')
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString(row(sep))
	for _, r := range rows {
		sb.WriteByte('\n')
		sb.WriteString(row(r))
	}
	return sb.String()
}

func row(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func inlines(nodes []doctree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(inline(n))
	}
	return sb.String()
}

func inline(n doctree.Node) string {
	switch n := n.(type) {
	case *doctree.Text:
		return n.Value
	case *doctree.Emphasis:
		return emphasis(n)
	case *doctree.ExternalLink:
		if n.Title == "" {
			return "<" + n.URL + ">"
		}
		return "[" + n.Title + "](" + n.URL + ")"
	case *doctree.InternalLink:
		if n.Anchor != "" {
			return "[[" + n.Title + "#" + n.Anchor + "]]"
		}
		return "[[" + n.Title + "]]"
	case *doctree.HashTag:
		return "#" + n.Value
	case *doctree.Image:
		return "![](" + n.URI + ")"
	}
	s, _ := block(n)
	return s
}

func emphasis(e *doctree.Emphasis) string {
	var marker string
	if e.Bold > 0 {
		marker += "**"
	}
	if e.Italic {
		marker += "*"
	}
	s := marker + e.Text + marker
	if e.Strikethrough {
		s = "~~" + s + "~~"
	}
	return s
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return strings.Join(lines, "\n")
}

func joinLines(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// prefixLines puts first before the first line and rest before the others.
// Empty continuation lines are left bare.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = first + l
		case l == "":
		default:
			lines[i] = rest + l
		}
	}
	return strings.Join(lines, "\n")
}
