package imageref

import (
	"testing"

	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/google/go-cmp/cmp"
)

func imagePage(uris ...string) *doctree.Page {
	page := &doctree.Page{}
	list := &doctree.List{}
	for i, u := range uris {
		img := doctree.NewImage(u)
		// Spread images across different containers.
		switch i % 3 {
		case 0:
			page.Nodes = append(page.Nodes, &doctree.Paragraph{Children: []doctree.Node{doctree.NewText("x"), img}})
		case 1:
			list.Items = append(list.Items, &doctree.ListItem{Children: []doctree.Node{img}})
		default:
			page.Nodes = append(page.Nodes, img)
		}
	}
	if len(list.Items) > 0 {
		page.Nodes = append(page.Nodes, list)
	}
	return page
}

func TestCollect_Deduplicates(t *testing.T) {
	got := Collect(imagePage("a.png", "b.png", "a.png")).Sorted()
	want := []string{"a.png", "b.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collected mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_StructureIndependent(t *testing.T) {
	flat := &doctree.Page{Nodes: []doctree.Node{doctree.NewImage("b.png"), doctree.NewImage("a.png")}}
	nested := imagePage("a.png", "a.png", "b.png", "b.png")
	if diff := cmp.Diff(Collect(flat), Collect(nested)); diff != "" {
		t.Errorf("expected identical sets (-flat +nested):\n%s", diff)
	}
}

func TestCollect_Idempotent(t *testing.T) {
	page := imagePage("a.png", "b.png", "c.png")
	first := Collect(page)
	second := Collect(page)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("expected repeated collection to match (-first +second):\n%s", diff)
	}
}

func TestCollect_Empty(t *testing.T) {
	got := Collect(&doctree.Page{Nodes: []doctree.Node{doctree.NewText("no images")}})
	if len(got) != 0 {
		t.Errorf("expected empty set, got %v", got.Sorted())
	}
	if got.Has("anything") {
		t.Error("expected Has to be false on empty set")
	}
}

func TestRewrite_PartialMapping(t *testing.T) {
	page := imagePage("a.png", "b.png", "a.png")
	if got := Collect(page).Sorted(); !cmp.Equal(got, []string{"a.png", "b.png"}) {
		t.Fatalf("unexpected initial set %v", got)
	}

	n := Rewrite(page, map[string]string{"a.png": "https://x/a.png"}, nil)
	if n != 2 {
		t.Errorf("expected 2 replacements, got %d", n)
	}

	got := Collect(page).Sorted()
	want := []string{"b.png", "https://x/a.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collected mismatch (-want +got):\n%s", diff)
	}
}

func TestRewrite_EmptyMappingIsNoop(t *testing.T) {
	page := imagePage("a.png", "b.png")
	before := Collect(page)
	if n := Rewrite(page, nil, nil); n != 0 {
		t.Errorf("expected 0 replacements, got %d", n)
	}
	if n := Rewrite(page, map[string]string{}, nil); n != 0 {
		t.Errorf("expected 0 replacements, got %d", n)
	}
	if diff := cmp.Diff(before, Collect(page)); diff != "" {
		t.Errorf("expected unchanged set (-before +after):\n%s", diff)
	}
}

func TestRewrite_UnknownKeysIgnored(t *testing.T) {
	page := imagePage("a.png")
	n := Rewrite(page, map[string]string{"zzz.png": "https://x/zzz.png"}, nil)
	if n != 0 {
		t.Errorf("expected 0 replacements, got %d", n)
	}
	if got := Collect(page).Sorted(); !cmp.Equal(got, []string{"a.png"}) {
		t.Errorf("expected [a.png], got %v", got)
	}
}

func TestRewrite_PreservesPosition(t *testing.T) {
	page := &doctree.Page{Nodes: []doctree.Node{
		&doctree.Paragraph{Children: []doctree.Node{
			doctree.NewText("before"),
			doctree.NewImage("a.png"),
			doctree.NewText("after"),
		}},
	}}
	Rewrite(page, map[string]string{"a.png": "b.png"}, nil)

	children := page.Nodes[0].(*doctree.Paragraph).Children
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	if img, ok := children[1].(*doctree.Image); !ok || img.URI != "b.png" {
		t.Errorf("expected image b.png at index 1, got %#v", children[1])
	}
	if txt := children[2].(*doctree.Text).Value; txt != "after" {
		t.Errorf("expected trailing text %q, got %q", "after", txt)
	}
}

func TestRewrite_CollectDuality(t *testing.T) {
	pages := [][]string{
		{},
		{"a.png"},
		{"a.png", "b.png", "c.png", "a.png"},
		{"x", "y", "x", "z", "w"},
	}
	mappings := []map[string]string{
		nil,
		{"a.png": "A"},
		{"a.png": "b.png"}, // maps onto an existing key
		{"x": "1", "y": "2", "z": "3", "w": "4", "unused": "5"},
	}
	for _, uris := range pages {
		for _, mapping := range mappings {
			page := imagePage(uris...)
			want := Set{}
			for u := range Collect(page) {
				if v, ok := mapping[u]; ok {
					u = v
				}
				want[u] = struct{}{}
			}

			Rewrite(page, mapping, nil)
			if diff := cmp.Diff(want, Collect(page)); diff != "" {
				t.Errorf("uris=%v mapping=%v (-want +got):\n%s", uris, mapping, diff)
			}
		}
	}
}

func TestRewriter_Counts(t *testing.T) {
	r := NewRewriter(map[string]string{"a.png": "A", "b.png": "B"}, nil)
	r.Visit(imagePage("a.png", "b.png", "c.png", "a.png"))
	if r.Replaced() != 3 {
		t.Errorf("expected 3 replacements, got %d", r.Replaced())
	}
}
