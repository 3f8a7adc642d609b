package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"

	"github.com/dgallion1/docpass/internal/describe"
)

// palette maps fragment kinds to display functions.
type palette map[describe.FragmentKind]func(a ...any) string

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		describe.KindNormal:   fmt.Sprint,
		describe.KindCode:     mk(color.FgCyan),
		describe.KindLink:     mk(color.FgBlue, color.Underline),
		describe.KindEmphasis: mk(color.Bold),
		describe.KindImage:    mk(color.FgMagenta),
	}
}

func (p palette) fragment(f describe.Fragment) string {
	v := f.Value
	if f.Kind == describe.KindImage {
		v = "[image " + v + "]"
	}
	if fn, ok := p[f.Kind]; ok {
		return fn(v)
	}
	return v
}

// renderLines writes one output line per description line.
func renderLines(w io.Writer, lines []describe.Line, p palette) {
	for _, line := range lines {
		var sb strings.Builder
		for _, f := range line {
			sb.WriteString(p.fragment(f))
		}
		fmt.Fprintln(w, sb.String())
	}
}

type describeOutput struct {
	File        string          `json:"file"`
	Title       string          `json:"title"`
	Description []describe.Line `json:"description"`
}

func describeFiles(cfg *DescribeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Describe.Parse(cc, args)
	if err != nil {
		return err
	}
	docs, err := openDocuments(cfg.MainConfig, cc, args)
	if err != nil {
		return err
	}

	if cfg.JSON {
		enc := json.NewEncoder(cc.Out)
		for _, doc := range docs {
			out := describeOutput{
				File:        doc.name,
				Title:       doc.conv.Page().Title,
				Description: doc.conv.Description(),
			}
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("error encoding description: %w", err)
			}
		}
		return nil
	}

	p := newPalette(cfg.useColor(cc.Out))
	for i, doc := range docs {
		header(cc.Out, docs, i)
		renderLines(cc.Out, doc.conv.Description(), p)
	}
	return nil
}
