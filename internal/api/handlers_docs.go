package api

import (
	"net/http"

	"github.com/dgallion1/docpass/internal/convert"
	"github.com/dgallion1/docpass/internal/parser"
)

// parseUpload reads the request's document and parses it with the configured
// parser options. On failure it writes the error response and returns false.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*convert.Converter, *upload, bool) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return nil, nil, false
	}
	p, err := parser.ForFileWith(up.filename, s.parseOpts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, false
	}
	c, err := convert.NewWith(p, up.data, up.filename, s.log)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, false
	}
	return c, up, true
}

// handleDescribe returns the bounded display preview of a document.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	c, _, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":       c.Page().Title,
		"description": c.Description(),
	})
}

// handleImages lists the distinct image references of a document.
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	c, _, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"images": c.ImageURLs(),
	})
}

// handleRewrite applies the mapping field to a document's image references
// and returns the regenerated Markdown. With resolve=true, remaining local
// images are uploaded to the image host.
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	c, up, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	replaced := c.ReplaceImageURLs(up.mapping)

	if r.FormValue("resolve") == "true" {
		if s.images == nil {
			jsonError(w, "image host not configured", http.StatusServiceUnavailable)
			return
		}
		n, err := c.Resolve(r.Context(), s.images)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		replaced += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"replaced": replaced,
		"images":   c.ImageURLs(),
		"markdown": c.Generate(),
	})
}
