// Package describe builds a short, line-bounded preview of a page. Each line
// is a run of fragments tagged with how they should be displayed.
package describe

import (
	"log/slog"

	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/dgallion1/docpass/internal/visit"
)

// MaxLines is the number of full display lines a description holds. One more
// line may be started before the walk notices it is finished, so a result can
// carry MaxLines+1 lines. That overflow line may be partial or empty: a list
// item opens it, but the item's children are not visited once the walk is done.
const MaxLines = 5

// FragmentKind tags how a fragment is displayed.
type FragmentKind string

const (
	KindNormal   FragmentKind = "normal"
	KindCode     FragmentKind = "code"
	KindLink     FragmentKind = "link"
	KindEmphasis FragmentKind = "emphasis"
	KindImage    FragmentKind = "image"
)

// Fragment is one tagged piece of a display line.
type Fragment struct {
	Kind  FragmentKind `json:"kind"`
	Value string       `json:"value"`
}

// Line is an ordered run of fragments. An empty line marks a block boundary.
type Line []Fragment

// Writer is the description pass. Use a fresh Writer per page.
type Writer struct {
	lines []Line
	log   *slog.Logger
}

func NewWriter(log *slog.Logger) *Writer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Writer{log: log}
}

// Describe runs a fresh Writer over page and returns its lines.
func Describe(page *doctree.Page) []Line {
	w := NewWriter(nil)
	w.Visit(page)
	return w.Lines()
}

// Visit walks page, accumulating display lines.
func (w *Writer) Visit(page *doctree.Page) {
	visit.Walk(page, w.visitor())
	w.log.Debug("description written", "lines", len(w.lines), "truncated", w.finished())
}

// Lines returns the accumulated lines. Lines are never nil.
func (w *Writer) Lines() []Line {
	out := make([]Line, len(w.lines))
	for i, l := range w.lines {
		if l == nil {
			l = Line{}
		}
		out[i] = l
	}
	return out
}

func (w *Writer) visitor() *visit.Visitor {
	return &visit.Visitor{
		Finished: w.finished,
		Enter: func(doctree.Node) {
			if len(w.lines) == 0 {
				w.newLine()
			}
		},
		Paragraph: func(*doctree.Paragraph) visit.Command {
			w.breakLine()
			return visit.Continue
		},
		ListItem: func(*doctree.ListItem) visit.Command {
			w.breakLine()
			return visit.Continue
		},
		CodeBlock: w.codeBlock,
		Text: func(n *doctree.Text) visit.Command {
			return w.push(KindNormal, n.Value)
		},
		Emphasis: func(n *doctree.Emphasis) visit.Command {
			return w.push(KindEmphasis, n.Text)
		},
		Heading: func(n *doctree.Heading) visit.Command {
			return w.push(KindEmphasis, n.Text)
		},
		ExternalLink: func(n *doctree.ExternalLink) visit.Command {
			if n.Title != "" {
				return w.push(KindLink, n.Title)
			}
			return w.push(KindLink, n.URL)
		},
		InternalLink: func(n *doctree.InternalLink) visit.Command {
			return w.push(KindLink, n.Title)
		},
		HashTag: func(n *doctree.HashTag) visit.Command {
			return w.push(KindLink, "#"+n.Value)
		},
		BlockQuote: func(n *doctree.BlockQuote) visit.Command {
			return w.push(KindCode, n.Value)
		},
		// Math is passed through as source; it is not rendered.
		Math: func(n *doctree.Math) visit.Command {
			return w.push(KindNormal, n.Value)
		},
		Image: func(n *doctree.Image) visit.Command {
			return w.push(KindImage, n.URI)
		},
		// Tables are not rendered into descriptions.
		Table: func(*doctree.Table) visit.Command {
			return visit.Continue
		},
	}
}

func (w *Writer) finished() bool {
	return len(w.lines) > MaxLines
}

func (w *Writer) newLine() {
	w.lines = append(w.lines, Line{})
}

// breakLine starts a new line unless the current one is still empty.
func (w *Writer) breakLine() {
	if len(w.lines) == 0 || len(w.lines[len(w.lines)-1]) > 0 {
		w.newLine()
	}
}

func (w *Writer) push(kind FragmentKind, value string) visit.Command {
	if len(w.lines) == 0 {
		panic("describe: no current line to append to")
	}
	last := len(w.lines) - 1
	w.lines[last] = append(w.lines[last], Fragment{Kind: kind, Value: value})
	return visit.Continue
}

// codeBlock gives every source line its own display line.
func (w *Writer) codeBlock(n *doctree.CodeBlock) visit.Command {
	for _, src := range n.Lines {
		if w.finished() {
			break
		}
		w.lines = append(w.lines, Line{{Kind: KindCode, Value: src}})
	}
	return visit.Continue
}
