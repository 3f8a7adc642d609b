package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/scott-cotton/cli"
)

func rewrite(cfg *RewriteConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Rewrite.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Mapping == "" {
		return fmt.Errorf("%w: rewrite requires -m mapping", cli.ErrUsage)
	}
	mapping, err := loadMapping(cfg.Mapping)
	if err != nil {
		return err
	}
	docs, err := openDocuments(cfg.MainConfig, cc, args)
	if err != nil {
		return err
	}

	log := cfg.logger()
	colored := cfg.useColor(cc.Out)
	for i, doc := range docs {
		header(cc.Out, docs, i)
		before := doc.conv.Generate()
		n := doc.conv.ReplaceImageURLs(mapping)
		log.Info("rewrote images", "file", doc.name, "replaced", n)
		after := doc.conv.Generate()
		if !cfg.Diff {
			io.WriteString(cc.Out, after)
			continue
		}
		io.WriteString(cc.Out, diffText(before, after, colored))
	}
	return nil
}

// loadMapping reads a mapping file. JSON input is accepted as YAML.
func loadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading mapping %s: %w", path, err)
	}
	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("error decoding mapping %s: %w", path, err)
	}
	return mapping, nil
}

// diffText renders a line diff of two texts. Without color, changed lines are
// prefixed with "+ " or "- " and unchanged ones with two spaces.
func diffText(from, to string, colored bool) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	if colored {
		return dmp.DiffPrettyText(diffs)
	}

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix = "+ "
		case diffpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
