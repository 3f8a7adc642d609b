package parser

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/dgallion1/docpass/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts page text with ledongthuc/pdf. When FallbackPdftotext
// is set and the library fails, the poppler pdftotext binary is tried.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	text, err := extractPDFText(data)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return &doctree.Page{Title: trimExt(filename), Nodes: pdfNodes(text)}, nil
}

// pdfNodes turns form-feed separated page text into a heading per page
// followed by its paragraphs. Blank pages are skipped.
func pdfNodes(text string) []doctree.Node {
	var nodes []doctree.Node
	for i, body := range strings.Split(text, "\f") {
		paragraphs, _ := scanParagraphs(strings.NewReader(body))
		if len(paragraphs) == 0 {
			continue
		}
		nodes = append(nodes, &doctree.Heading{Text: fmt.Sprintf("Page %d", i+1), Level: 2})
		for _, para := range paragraphs {
			nodes = append(nodes, &doctree.Paragraph{Children: []doctree.Node{doctree.NewText(para)}})
		}
	}
	return nodes
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		var text string
		if pg := reader.Page(i); !pg.V.IsNull() {
			// Unreadable pages stay in place as blanks so numbering holds.
			text, _ = pg.GetPlainText(nil)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\f"), nil
}

func extractPdftotext(data []byte) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
