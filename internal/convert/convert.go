// Package convert ties parsing and the tree passes together for one document.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docpass/internal/describe"
	"github.com/dgallion1/docpass/internal/doctree"
	"github.com/dgallion1/docpass/internal/imageref"
	"github.com/dgallion1/docpass/internal/parser"
	"github.com/dgallion1/docpass/internal/printer"
)

// Resolver maps image references to the URIs they should be replaced with.
// References missing from the returned map are left unchanged.
type Resolver interface {
	Resolve(ctx context.Context, uris []string) (map[string]string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, uris []string) (map[string]string, error)

func (f ResolverFunc) Resolve(ctx context.Context, uris []string) (map[string]string, error) {
	return f(ctx, uris)
}

// Converter owns one parsed page. Passes run one at a time; a Converter is
// not safe for concurrent use.
type Converter struct {
	page *doctree.Page
	log  *slog.Logger
}

// New parses src with the parser registered for filename's extension.
func New(src []byte, filename string, log *slog.Logger) (*Converter, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	return NewWith(p, src, filename, log)
}

// NewWith parses src with p.
func NewWith(p parser.Parser, src []byte, filename string, log *slog.Logger) (*Converter, error) {
	page, err := p.Parse(bytes.NewReader(src), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return FromPage(page, log), nil
}

// FromPage wraps an already parsed page.
func FromPage(page *doctree.Page, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if page == nil {
		page = &doctree.Page{}
	}
	return &Converter{page: page, log: log}
}

func (c *Converter) Page() *doctree.Page { return c.page }

// ImageURLs returns the distinct image references in lexical order.
func (c *Converter) ImageURLs() []string {
	return imageref.Collect(c.page).Sorted()
}

// ReplaceImageURLs rewrites mapped image references and reports how many
// image nodes changed.
func (c *Converter) ReplaceImageURLs(mapping map[string]string) int {
	return imageref.Rewrite(c.page, mapping, c.log)
}

// Description runs the bounded description pass over the current page.
func (c *Converter) Description() []describe.Line {
	w := describe.NewWriter(c.log)
	w.Visit(c.page)
	return w.Lines()
}

// Generate renders the current page as Markdown.
func (c *Converter) Generate() string {
	return printer.Markdown(c.page)
}

// Resolve collects image references, asks r for replacements and applies
// them. The page is untouched when r fails.
func (c *Converter) Resolve(ctx context.Context, r Resolver) (int, error) {
	urls := c.ImageURLs()
	if len(urls) == 0 {
		return 0, nil
	}
	mapping, err := r.Resolve(ctx, urls)
	if err != nil {
		return 0, fmt.Errorf("resolve images: %w", err)
	}
	n := c.ReplaceImageURLs(mapping)
	c.log.Debug("images resolved", "found", len(urls), "mapped", len(mapping), "replaced", n)
	return n, nil
}
