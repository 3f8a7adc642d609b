package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docpass/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Extensions names
// entries of the extension registry; when empty, GFM defaults are used.
type MarkdownParser struct {
	Extensions []string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(collectExtensions(p.Extensions)...))
	doc := md.Parser().Parse(text.NewReader(body))

	page := &doctree.Page{
		Title: trimExt(filename),
		Meta:  meta,
	}
	if title, ok := meta["title"].(string); ok && title != "" {
		page.Title = title
	}

	b := &mdBuilder{src: body}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		page.Nodes = append(page.Nodes, b.block(n)...)
	}
	return page, nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}

// mdBuilder converts goldmark AST nodes into doctree nodes.
type mdBuilder struct {
	src []byte
}

func (b *mdBuilder) block(n ast.Node) []doctree.Node {
	switch n := n.(type) {
	case *ast.Heading:
		var out []doctree.Node
		if t := strings.TrimSpace(b.text(n)); t != "" || !hasImage(n) {
			out = append(out, &doctree.Heading{Text: t, Level: n.Level})
		}
		return append(out, b.imageBlock(n)...)

	case *ast.Paragraph, *ast.TextBlock:
		if m, ok := b.displayMath(n); ok {
			return []doctree.Node{m}
		}
		return []doctree.Node{&doctree.Paragraph{Children: b.inlines(n)}}

	case *ast.List:
		list := &doctree.List{Ordered: n.IsOrdered()}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			item := &doctree.ListItem{}
			for cc := c.FirstChild(); cc != nil; cc = cc.NextSibling() {
				item.Children = append(item.Children, b.block(cc)...)
			}
			list.Items = append(list.Items, item)
		}
		return []doctree.Node{list}

	case *ast.FencedCodeBlock:
		lang := string(n.Language(b.src))
		lines := b.rawLines(n)
		if lang == "math" {
			return []doctree.Node{&doctree.Math{Value: strings.Join(lines, "\n")}}
		}
		return []doctree.Node{&doctree.CodeBlock{FileName: lang, Lines: lines}}

	case *ast.CodeBlock:
		return []doctree.Node{&doctree.CodeBlock{Lines: b.rawLines(n)}}

	case *ast.Blockquote:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := strings.TrimSpace(b.text(c)); t != "" {
				parts = append(parts, t)
			}
		}
		var out []doctree.Node
		if len(parts) > 0 || !hasImage(n) {
			out = append(out, &doctree.BlockQuote{Value: strings.Join(parts, "\n")})
		}
		return append(out, b.imageBlock(n)...)

	case *east.Table:
		return append([]doctree.Node{b.table(n)}, b.imageBlock(n)...)
	}
	// Thematic breaks, raw HTML blocks and unknown extension blocks carry no content.
	return nil
}

func (b *mdBuilder) table(n *east.Table) *doctree.Table {
	t := &doctree.Table{}
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(b.text(cell)))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// displayMath recognizes a paragraph that is a single $$...$$ block.
func (b *mdBuilder) displayMath(n ast.Node) (*doctree.Math, bool) {
	raw := strings.TrimSpace(strings.Join(b.rawLines(n), "\n"))
	if len(raw) < 5 || !strings.HasPrefix(raw, "$$") || !strings.HasSuffix(raw, "$$") {
		return nil, false
	}
	return &doctree.Math{Value: strings.TrimSpace(raw[2 : len(raw)-2])}, true
}

func (b *mdBuilder) inlines(parent ast.Node) []doctree.Node {
	var out []doctree.Node
	var buf strings.Builder
	flush := func() {
		out = append(out, splitInline(buf.String())...)
		buf.Reset()
	}

	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(b.src))
			if c.HardLineBreak() {
				buf.WriteByte('\n')
			} else if c.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.CodeSpan:
			buf.WriteString(b.plain(c))
		case *east.TaskCheckBox:
			if c.IsChecked {
				buf.WriteString("[x] ")
			} else {
				buf.WriteString("[ ] ")
			}
		case *ast.Emphasis:
			flush()
			if e := b.emphasis(c); e.Text != "" {
				out = append(out, e)
			}
			out = append(out, b.images(c)...)
		case *east.Strikethrough:
			flush()
			if t := b.text(c); t != "" {
				out = append(out, &doctree.Emphasis{Text: t, Strikethrough: true})
			}
			out = append(out, b.images(c)...)
		case *ast.Link:
			flush()
			out = append(out, &doctree.ExternalLink{URL: string(c.Destination), Title: b.plain(c)})
			// Images wrapped in a link still count as image references.
			out = append(out, b.images(c)...)
		case *ast.AutoLink:
			flush()
			out = append(out, &doctree.ExternalLink{URL: string(c.URL(b.src))})
		case *ast.Image:
			flush()
			out = append(out, doctree.NewImage(string(c.Destination)))
		case *ast.RawHTML:
			// dropped
		default:
			buf.WriteString(b.plain(c))
		}
	}
	flush()
	return out
}

// emphasis folds nested single-child emphasis (***x***) into one node.
func (b *mdBuilder) emphasis(n *ast.Emphasis) *doctree.Emphasis {
	e := &doctree.Emphasis{Text: b.text(n)}
	var cur ast.Node = n
	for {
		em, ok := cur.(*ast.Emphasis)
		if !ok {
			break
		}
		if em.Level >= 2 {
			e.Bold++
		} else {
			e.Italic = true
		}
		if em.ChildCount() != 1 {
			break
		}
		cur = em.FirstChild()
	}
	return e
}

// plain flattens the inline text beneath n. Image alt text is kept.
func (b *mdBuilder) plain(n ast.Node) string {
	return b.flatten(n, true)
}

// text flattens the inline text beneath n without image alt text. Callers
// emit the images themselves through images or imageBlock.
func (b *mdBuilder) text(n ast.Node) string {
	return b.flatten(n, false)
}

// images returns an Image node for every image beneath n, in source order.
func (b *mdBuilder) images(n ast.Node) []doctree.Node {
	var out []doctree.Node
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := c.(*ast.Image); ok && entering {
			out = append(out, doctree.NewImage(string(img.Destination)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// imageBlock keeps the images beneath a flattened block in the tree.
func (b *mdBuilder) imageBlock(n ast.Node) []doctree.Node {
	return imageBlock(b.images(n))
}

func hasImage(n ast.Node) bool {
	found := false
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if _, ok := c.(*ast.Image); ok {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

func (b *mdBuilder) flatten(n ast.Node, alt bool) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				buf.Write(c.Segment.Value(b.src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(c.Value)
			case *ast.AutoLink:
				buf.Write(c.Label(b.src))
			case *ast.Image:
				if alt {
					walk(c)
				}
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimRight(buf.String(), " ")
}

// rawLines returns the source lines of a block without trailing newlines.
func (b *mdBuilder) rawLines(n ast.Node) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(b.src)), "\r\n"))
	}
	return out
}
