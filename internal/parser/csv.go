package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docpass/internal/doctree"
)

// CSVParser handles CSV files. The whole file becomes a single Table whose
// first record is the header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := trimExt(filename)
	page := &doctree.Page{Title: title}
	if len(records) == 0 {
		return page, nil
	}

	page.Nodes = []doctree.Node{&doctree.Table{
		Title:  title,
		Header: records[0],
		Rows:   records[1:],
	}}
	return page, nil
}
