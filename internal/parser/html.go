package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dgallion1/docpass/internal/doctree"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &doctree.Page{Title: trimExt(filename)}

	// Extract title from <title> tag if present.
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		page.Title = title
	}

	// Find <body> or use whole document.
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	page.Nodes = htmlBlocks(root)
	return page, nil
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// htmlBlocks converts the children of sel into block nodes. Runs of inline
// content between blocks are gathered into paragraphs.
func htmlBlocks(sel *goquery.Selection) []doctree.Node {
	var out []doctree.Node
	var pending []doctree.Node
	flush := func() {
		if children := trimInline(pending); len(children) > 0 {
			out = append(out, &doctree.Paragraph{Children: children})
		}
		pending = nil
	}

	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		node := c.Get(0)
		if node.Type == html.TextNode {
			if strings.TrimSpace(node.Data) != "" || len(pending) > 0 {
				pending = append(pending, splitInline(collapseSpace(node.Data))...)
			}
			return
		}
		if node.Type != html.ElementNode {
			return
		}

		tag := goquery.NodeName(c)
		if level := headingLevel(tag); level > 0 {
			flush()
			imgs := htmlImages(c)
			if text := strings.TrimSpace(collapseSpace(c.Text())); text != "" || len(imgs) == 0 {
				out = append(out, &doctree.Heading{Text: text, Level: level})
			}
			out = append(out, imageBlock(imgs)...)
			return
		}

		switch tag {
		case "script", "style", "nav", "footer", "header", "head", "template":
			return
		case "p":
			flush()
			out = append(out, &doctree.Paragraph{Children: trimInline(htmlInlines(c))})
		case "ul", "ol":
			flush()
			out = append(out, htmlList(c, tag == "ol"))
		case "pre":
			flush()
			out = append(out, htmlCode(c))
		case "blockquote":
			flush()
			imgs := htmlImages(c)
			if text := strings.TrimSpace(collapseSpace(c.Text())); text != "" || len(imgs) == 0 {
				out = append(out, &doctree.BlockQuote{Value: text})
			}
			out = append(out, imageBlock(imgs)...)
		case "table":
			flush()
			out = append(out, htmlTable(c))
			out = append(out, imageBlock(htmlImages(c))...)
		case "div", "section", "article", "main", "aside", "figure", "body", "html":
			flush()
			out = append(out, htmlBlocks(c)...)
		default:
			pending = append(pending, htmlInline(c)...)
		}
	})
	flush()
	return out
}

func htmlList(sel *goquery.Selection, ordered bool) *doctree.List {
	list := &doctree.List{Ordered: ordered}
	sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		item := &doctree.ListItem{}
		if li.ChildrenFiltered("p, ul, ol, pre, blockquote, table, div").Length() > 0 {
			item.Children = htmlBlocks(li)
		} else {
			item.Children = []doctree.Node{&doctree.Paragraph{Children: trimInline(htmlInlines(li))}}
		}
		list.Items = append(list.Items, item)
	})
	return list
}

func htmlCode(sel *goquery.Selection) *doctree.CodeBlock {
	cb := &doctree.CodeBlock{}
	if class, ok := sel.Find("code").First().Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if lang, found := strings.CutPrefix(c, "language-"); found {
				cb.FileName = lang
				break
			}
		}
	}
	body := strings.TrimRight(sel.Text(), "\n")
	body = strings.TrimPrefix(body, "\n")
	if body != "" {
		cb.Lines = strings.Split(body, "\n")
	}
	return cb
}

func htmlTable(sel *goquery.Selection) *doctree.Table {
	t := &doctree.Table{}
	if caption := strings.TrimSpace(sel.Find("caption").First().Text()); caption != "" {
		t.Title = caption
	}
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		header := false
		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			if goquery.NodeName(cell) == "th" {
				header = true
			}
			cells = append(cells, strings.TrimSpace(collapseSpace(cell.Text())))
		})
		if header && t.Header == nil && len(t.Rows) == 0 {
			t.Header = cells
			return
		}
		t.Rows = append(t.Rows, cells)
	})
	return t
}

func htmlInlines(sel *goquery.Selection) []doctree.Node {
	var out []doctree.Node
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		out = append(out, htmlInline(c)...)
	})
	return out
}

func htmlInline(c *goquery.Selection) []doctree.Node {
	node := c.Get(0)
	switch node.Type {
	case html.TextNode:
		return splitInline(collapseSpace(node.Data))
	case html.ElementNode:
	default:
		return nil
	}

	text := strings.TrimSpace(collapseSpace(c.Text()))
	switch goquery.NodeName(c) {
	case "a":
		href, _ := c.Attr("href")
		return append([]doctree.Node{&doctree.ExternalLink{URL: href, Title: text}}, htmlImages(c)...)
	case "img":
		if src, ok := c.Attr("src"); ok {
			return []doctree.Node{doctree.NewImage(src)}
		}
		return nil
	case "strong", "b":
		return emphasized(&doctree.Emphasis{Text: text, Bold: 1}, c)
	case "em", "i":
		return emphasized(&doctree.Emphasis{Text: text, Italic: true}, c)
	case "del", "s", "strike":
		return emphasized(&doctree.Emphasis{Text: text, Strikethrough: true}, c)
	case "code", "kbd", "samp":
		return []doctree.Node{doctree.NewText(c.Text())}
	case "br":
		return []doctree.Node{doctree.NewText("\n")}
	case "script", "style":
		return nil
	}
	return htmlInlines(c)
}

// emphasized returns e followed by any images inside sel. An emphasis with
// no text is dropped.
func emphasized(e *doctree.Emphasis, sel *goquery.Selection) []doctree.Node {
	var out []doctree.Node
	if e.Text != "" {
		out = append(out, e)
	}
	return append(out, htmlImages(sel)...)
}

func htmlImages(sel *goquery.Selection) []doctree.Node {
	var out []doctree.Node
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			out = append(out, doctree.NewImage(src))
		}
	})
	return out
}

// imageBlock keeps images found under a flattened block as a paragraph
// right after it.
func imageBlock(imgs []doctree.Node) []doctree.Node {
	if len(imgs) == 0 {
		return nil
	}
	return []doctree.Node{&doctree.Paragraph{Children: imgs}}
}

// trimInline strips leading and trailing whitespace from the outer text runs.
func trimInline(nodes []doctree.Node) []doctree.Node {
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[0].(*doctree.Text); ok {
		t.Value = strings.TrimLeft(t.Value, " \n")
		if t.Value == "" {
			nodes = nodes[1:]
		}
	}
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[len(nodes)-1].(*doctree.Text); ok {
		t.Value = strings.TrimRight(t.Value, " \n")
		if t.Value == "" {
			nodes = nodes[:len(nodes)-1]
		}
	}
	return nodes
}
