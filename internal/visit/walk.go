// Package visit walks a document tree and dispatches each node to per-kind
// handlers. A pass is a Visitor: a table of optional handlers plus a finish
// predicate. Kinds without a handler get the default behavior, which is to
// descend into children without mutating anything.
package visit

import (
	"fmt"

	"github.com/dgallion1/docpass/internal/doctree"
)

// Visitor is the capability table for one pass. Every field is optional.
//
// Handlers for container kinds (Paragraph, List, ListItem) run before the
// container's children are walked. Returning Continue lets the walker descend.
type Visitor struct {
	// Finished is polled before every node visit, at every depth. Once it
	// reports true the walk unwinds without visiting anything else.
	Finished func() bool

	// Enter runs for every node before its kind handler.
	Enter func(n doctree.Node)

	Text         func(n *doctree.Text) Command
	Emphasis     func(n *doctree.Emphasis) Command
	ExternalLink func(n *doctree.ExternalLink) Command
	InternalLink func(n *doctree.InternalLink) Command
	HashTag      func(n *doctree.HashTag) Command
	Heading      func(n *doctree.Heading) Command
	Paragraph    func(n *doctree.Paragraph) Command
	List         func(n *doctree.List) Command
	ListItem     func(n *doctree.ListItem) Command
	Table        func(n *doctree.Table) Command
	CodeBlock    func(n *doctree.CodeBlock) Command
	BlockQuote   func(n *doctree.BlockQuote) Command
	Math         func(n *doctree.Math) Command
	Image        func(n *doctree.Image) Command
}

// Walk visits every node of page in pre-order, siblings in stored order.
func Walk(page *doctree.Page, v *Visitor) {
	if page == nil {
		return
	}
	WalkNodes(page.Nodes, v)
}

// WalkNodes walks a bare node slice. Replacements are written back into nodes.
func WalkNodes(nodes []doctree.Node, v *Visitor) {
	w := &walker{v: v}
	w.walkNodes(nodes)
}

type walker struct {
	v       *Visitor
	stopped bool
}

func (w *walker) done() bool {
	if w.stopped {
		return true
	}
	if w.v.Finished != nil && w.v.Finished() {
		w.stopped = true
	}
	return w.stopped
}

func (w *walker) walkNodes(nodes []doctree.Node) {
	for i := range nodes {
		if w.done() {
			return
		}
		if nodes[i] == nil {
			continue
		}
		if repl := w.visit(nodes[i]); repl != nil {
			nodes[i] = repl
		}
	}
}

func (w *walker) walkItems(items []*doctree.ListItem) {
	for i := range items {
		if w.done() {
			return
		}
		if items[i] == nil {
			continue
		}
		repl := w.visit(items[i])
		if repl == nil {
			continue
		}
		item, ok := repl.(*doctree.ListItem)
		if !ok {
			panic(fmt.Sprintf("visit: list item replaced by %s node", repl.Kind()))
		}
		items[i] = item
	}
}

// visit runs the handlers for n, descends when asked to, and returns the
// node that should take n's place, or nil.
func (w *walker) visit(n doctree.Node) doctree.Node {
	if w.v.Enter != nil {
		w.v.Enter(n)
	}

	cmd := w.dispatch(n)
	if repl, ok := cmd.Replacement(); ok {
		return repl
	}
	switch cmd.act {
	case actStop:
		w.stopped = true
		return nil
	case actSkipChildren:
		return nil
	}

	switch n := n.(type) {
	case *doctree.Paragraph:
		w.walkNodes(n.Children)
	case *doctree.List:
		w.walkItems(n.Items)
	case *doctree.ListItem:
		w.walkNodes(n.Children)
	}
	return nil
}

func (w *walker) dispatch(n doctree.Node) Command {
	v := w.v
	switch n := n.(type) {
	case *doctree.Text:
		if v.Text != nil {
			return v.Text(n)
		}
	case *doctree.Emphasis:
		if v.Emphasis != nil {
			return v.Emphasis(n)
		}
	case *doctree.ExternalLink:
		if v.ExternalLink != nil {
			return v.ExternalLink(n)
		}
	case *doctree.InternalLink:
		if v.InternalLink != nil {
			return v.InternalLink(n)
		}
	case *doctree.HashTag:
		if v.HashTag != nil {
			return v.HashTag(n)
		}
	case *doctree.Heading:
		if v.Heading != nil {
			return v.Heading(n)
		}
	case *doctree.Paragraph:
		if v.Paragraph != nil {
			return v.Paragraph(n)
		}
	case *doctree.List:
		if v.List != nil {
			return v.List(n)
		}
	case *doctree.ListItem:
		if v.ListItem != nil {
			return v.ListItem(n)
		}
	case *doctree.Table:
		if v.Table != nil {
			return v.Table(n)
		}
	case *doctree.CodeBlock:
		if v.CodeBlock != nil {
			return v.CodeBlock(n)
		}
	case *doctree.BlockQuote:
		if v.BlockQuote != nil {
			return v.BlockQuote(n)
		}
	case *doctree.Math:
		if v.Math != nil {
			return v.Math(n)
		}
	case *doctree.Image:
		if v.Image != nil {
			return v.Image(n)
		}
	default:
		panic(fmt.Sprintf("visit: unknown node type %T", n))
	}
	return Continue
}
