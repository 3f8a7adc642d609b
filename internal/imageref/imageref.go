// Package imageref finds and rewrites image references in a page.
package imageref

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/dgallion1/docpass/internal/visit"
)

// Set is a deduplicated collection of image URIs.
type Set map[string]struct{}

// Has reports whether uri is in the set.
func (s Set) Has(uri string) bool {
	_, ok := s[uri]
	return ok
}

// Sorted returns the URIs in lexical order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Collect returns every distinct image URI in page. It does not mutate the page.
func Collect(page *doctree.Page) Set {
	urls := Set{}
	visit.Walk(page, &visit.Visitor{
		Image: func(n *doctree.Image) visit.Command {
			urls[n.URI] = struct{}{}
			return visit.Continue
		},
	})
	return urls
}

// Rewriter replaces image URIs found in its mapping. URIs missing from the
// mapping are left alone; a partial or empty mapping is normal input.
type Rewriter struct {
	urls     map[string]string
	log      *slog.Logger
	replaced int
}

func NewRewriter(urls map[string]string, log *slog.Logger) *Rewriter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Rewriter{urls: urls, log: log}
}

// Visit rewrites page in place.
func (r *Rewriter) Visit(page *doctree.Page) {
	visit.Walk(page, &visit.Visitor{
		Image: r.image,
	})
}

// Replaced is the number of image nodes replaced so far.
func (r *Rewriter) Replaced() int {
	return r.replaced
}

func (r *Rewriter) image(n *doctree.Image) visit.Command {
	url, ok := r.urls[n.URI]
	if !ok {
		return visit.Continue
	}
	r.log.Debug("replace image", "from", n.URI, "to", url)
	r.replaced++
	return visit.Replace(doctree.NewImage(url))
}

// Rewrite replaces mapped image URIs in page and returns how many nodes changed.
func Rewrite(page *doctree.Page, mapping map[string]string, log *slog.Logger) int {
	if len(mapping) == 0 {
		return 0
	}
	r := NewRewriter(mapping, log)
	r.Visit(page)
	return r.Replaced()
}
