package visit

import (
	"strings"
	"testing"

	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/google/go-cmp/cmp"
)

func samplePage() *doctree.Page {
	return &doctree.Page{
		Nodes: []doctree.Node{
			&doctree.Heading{Text: "Title", Level: 1},
			&doctree.Paragraph{Children: []doctree.Node{
				doctree.NewText("a"),
				doctree.NewImage("one.png"),
				doctree.NewText("b"),
			}},
			&doctree.List{Items: []*doctree.ListItem{
				{Children: []doctree.Node{doctree.NewText("item1")}},
				{Children: []doctree.Node{
					&doctree.Paragraph{Children: []doctree.Node{doctree.NewText("item2")}},
				}},
			}},
			&doctree.CodeBlock{Lines: []string{"x := 1"}},
		},
	}
}

// recorder logs the kind of every node the walker enters.
func recorder(out *[]string) *Visitor {
	return &Visitor{
		Enter: func(n doctree.Node) {
			*out = append(*out, n.Kind().String())
		},
	}
}

func TestWalk_PreOrder(t *testing.T) {
	var got []string
	Walk(samplePage(), recorder(&got))

	want := []string{
		"heading",
		"paragraph", "text", "image", "text",
		"list", "list_item", "text", "list_item", "paragraph", "text",
		"code_block",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_ContainerHandlerRunsBeforeChildren(t *testing.T) {
	var events []string
	v := &Visitor{
		Paragraph: func(*doctree.Paragraph) Command {
			events = append(events, "paragraph")
			return Continue
		},
		Text: func(n *doctree.Text) Command {
			events = append(events, "text:"+n.Value)
			return Continue
		},
	}
	Walk(samplePage(), v)

	want := []string{"paragraph", "text:a", "text:b", "text:item1", "paragraph", "text:item2"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_FinishedStopsAtEveryDepth(t *testing.T) {
	var texts []string
	v := &Visitor{
		Finished: func() bool { return len(texts) >= 2 },
		Text: func(n *doctree.Text) Command {
			texts = append(texts, n.Value)
			return Continue
		},
	}
	var entered []string
	v.Enter = func(n doctree.Node) { entered = append(entered, n.Kind().String()) }
	Walk(samplePage(), v)

	if len(texts) != 2 {
		t.Fatalf("expected 2 texts before finishing, got %d (%v)", len(texts), texts)
	}
	// Nothing after the second text may be entered, including the paragraph's
	// remaining siblings and the list.
	last := entered[len(entered)-1]
	if last != "text" {
		t.Errorf("expected last entered node to be text, got %q", last)
	}
	for _, k := range entered {
		if k == "list" || k == "code_block" {
			t.Errorf("expected walk to end before %s", k)
		}
	}
}

func TestWalk_ReplaceInPlace(t *testing.T) {
	page := samplePage()
	v := &Visitor{
		Image: func(n *doctree.Image) Command {
			return Replace(doctree.NewImage("two.png"))
		},
	}
	Walk(page, v)

	para := page.Nodes[1].(*doctree.Paragraph)
	if len(para.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(para.Children))
	}
	img, ok := para.Children[1].(*doctree.Image)
	if !ok {
		t.Fatalf("expected image at index 1, got %T", para.Children[1])
	}
	if img.URI != "two.png" {
		t.Errorf("expected URI %q, got %q", "two.png", img.URI)
	}
}

func TestWalk_ReplacementIsNotWalked(t *testing.T) {
	page := samplePage()
	var texts []string
	v := &Visitor{
		Paragraph: func(p *doctree.Paragraph) Command {
			return Replace(&doctree.Paragraph{Children: []doctree.Node{doctree.NewText("new")}})
		},
		Text: func(n *doctree.Text) Command {
			texts = append(texts, n.Value)
			return Continue
		},
	}
	Walk(page, v)

	// Paragraph children (old and new) are never visited; the list item text is.
	want := []string{"item1"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	got := page.Nodes[1].(*doctree.Paragraph).Children[0].(*doctree.Text).Value
	if got != "new" {
		t.Errorf("expected replaced paragraph, got text %q", got)
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	var got []string
	v := recorder(&got)
	v.List = func(*doctree.List) Command { return SkipChildren }
	Walk(samplePage(), v)

	if strings.Contains(strings.Join(got, ","), "list_item") {
		t.Errorf("expected list items to be skipped, got %v", got)
	}
	if got[len(got)-1] != "code_block" {
		t.Errorf("expected walk to continue after skipped list, got %v", got)
	}
}

func TestWalk_StopCommand(t *testing.T) {
	var got []string
	v := recorder(&got)
	v.Image = func(*doctree.Image) Command { return Stop }
	Walk(samplePage(), v)

	want := []string{"heading", "paragraph", "text", "image"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_ListItemReplacedByOtherKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when a list item is replaced by a non-item")
		}
	}()
	v := &Visitor{
		ListItem: func(*doctree.ListItem) Command {
			return Replace(doctree.NewText("oops"))
		},
	}
	Walk(samplePage(), v)
}

func TestWalk_NilPage(t *testing.T) {
	called := false
	Walk(nil, &Visitor{Enter: func(doctree.Node) { called = true }})
	if called {
		t.Error("expected no visits for a nil page")
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Continue, "continue"},
		{SkipChildren, "skip_children"},
		{Stop, "stop"},
		{Replace(doctree.NewImage("x")), "replace(image)"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestCommand_Replacement(t *testing.T) {
	img := doctree.NewImage("a.png")
	tests := []struct {
		cmd  Command
		want doctree.Node
		ok   bool
		name string
	}{
		{Continue, nil, false, "continue"},
		{SkipChildren, nil, false, "skip_children"},
		{Stop, nil, false, "stop"},
		{Replace(img), img, true, "replace(image)"},
	}
	for _, tt := range tests {
		got, ok := tt.cmd.Replacement()
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", tt.name, tt.want, tt.ok, got, ok)
		}
		if s := tt.cmd.String(); s != tt.name {
			t.Errorf("expected %q, got %q", tt.name, s)
		}
	}
}
