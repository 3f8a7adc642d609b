package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docpass/internal/doctree"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	paragraphs, err := scanParagraphs(r)
	if err != nil {
		return nil, err
	}

	page := &doctree.Page{
		Title: trimExt(filename),
	}

	// Each paragraph becomes a Paragraph node.
	for _, para := range paragraphs {
		page.Nodes = append(page.Nodes, &doctree.Paragraph{Children: splitInline(para)})
	}

	return page, nil
}

// scanParagraphs splits text on blank (or whitespace-only) lines.
func scanParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
