package printer

import (
	"strings"
	"testing"

	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/dgallion1/docpass/internal/parser"
)

func TestMarkdown_Blocks(t *testing.T) {
	page := &doctree.Page{Nodes: []doctree.Node{
		&doctree.Heading{Text: "Title", Level: 2},
		&doctree.Paragraph{Children: []doctree.Node{
			doctree.NewText("see "),
			&doctree.ExternalLink{URL: "https://x", Title: "x"},
			doctree.NewText(" and "),
			&doctree.ExternalLink{URL: "https://bare"},
			doctree.NewText(" "),
			&doctree.InternalLink{Title: "Home", Anchor: "top"},
			doctree.NewText(" "),
			&doctree.HashTag{Value: "go"},
		}},
		&doctree.CodeBlock{FileName: "go", Lines: []string{"a", "b"}},
		&doctree.BlockQuote{Value: "one\n\ntwo"},
		&doctree.Math{Value: "x^2"},
		doctree.NewImage("a.png"),
	}}

	want := strings.Join([]string{
		"## Title",
		"",
		"see [x](https://x) and <https://bare> [[Home#top]] #go",
		"",
		"```go",
		"a",
		"b",
		"```",
		"",
		"> one",
		">",
		"> two",
		"",
		"$$",
		"x^2",
		"$$",
		"",
		"![](a.png)",
		"",
	}, "\n")
	if got := Markdown(page); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestMarkdown_Lists(t *testing.T) {
	page := &doctree.Page{Nodes: []doctree.Node{
		&doctree.List{Ordered: true, Items: []*doctree.ListItem{
			{Children: []doctree.Node{&doctree.Paragraph{Children: []doctree.Node{doctree.NewText("first")}}}},
			{Children: []doctree.Node{
				&doctree.Paragraph{Children: []doctree.Node{doctree.NewText("second")}},
				&doctree.List{Items: []*doctree.ListItem{
					{Children: []doctree.Node{doctree.NewText("nested")}},
				}},
			}},
		}},
	}}

	want := "1. first\n2. second\n   - nested\n"
	if got := Markdown(page); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMarkdown_Emphasis(t *testing.T) {
	tests := []struct {
		em   doctree.Emphasis
		want string
	}{
		{doctree.Emphasis{Text: "b", Bold: 1}, "**b**"},
		{doctree.Emphasis{Text: "i", Italic: true}, "*i*"},
		{doctree.Emphasis{Text: "bi", Bold: 1, Italic: true}, "***bi***"},
		{doctree.Emphasis{Text: "s", Strikethrough: true}, "~~s~~"},
	}
	for _, tt := range tests {
		if got := inline(&tt.em); got != tt.want {
			t.Errorf("emphasis %+v: expected %q, got %q", tt.em, tt.want, got)
		}
	}
}

func TestMarkdown_Table(t *testing.T) {
	page := &doctree.Page{Nodes: []doctree.Node{
		&doctree.Table{Rows: [][]string{{"a", "b"}, {"1", "x|y"}}},
	}}
	want := "| a | b |\n| --- | --- |\n| 1 | x\\|y |\n"
	if got := Markdown(page); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	if got := Markdown(nil); got != "" {
		t.Errorf("expected empty output for nil page, got %q", got)
	}
	if got := Markdown(&doctree.Page{}); got != "" {
		t.Errorf("expected empty output for empty page, got %q", got)
	}
}

func TestMarkdown_RoundTrip(t *testing.T) {
	src := "# Guide\n\nIntro with ![](img/a.png) and [site](https://example.com).\n\n- one\n- two\n\n```sh\nmake\n```\n"
	p := &parser.MarkdownParser{}
	page, err := p.Parse(strings.NewReader(src), "guide.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Markdown(page); got != src {
		t.Errorf("round trip mismatch:\nwant %q\ngot  %q", src, got)
	}
}

// A linked image prints as the link followed by the image. The output is a
// fixed point: printing its parse again yields the same text.
func TestMarkdown_LinkedImageIsStable(t *testing.T) {
	p := &parser.MarkdownParser{}
	page, err := p.Parse(strings.NewReader("[![badge](b.svg)](https://ci)\n"), "readme.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := Markdown(page)
	want := "[badge](https://ci)![](b.svg)\n"
	if first != want {
		t.Fatalf("expected %q, got %q", want, first)
	}

	again, err := p.Parse(strings.NewReader(first), "readme.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second := Markdown(again); second != first {
		t.Errorf("expected stable output %q, got %q", first, second)
	}
}
