package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/dgallion1/docpass/internal/parser"
)

type MainConfig struct {
	Verbose bool   `cli:"name=v aliases=verbose desc='log debug output to stderr'"`
	Color   bool   `cli:"name=color desc='force colored output'"`
	NoColor bool   `cli:"name=no-color desc='disable colored output'"`
	Name    string `cli:"name=name desc='filename used to pick a parser for stdin (default stdin.md)'"`
	Ext     string `cli:"name=ext desc='comma separated goldmark extensions for markdown input'"`

	Main *cli.Command
}

func (cfg *MainConfig) logger() *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (cfg *MainConfig) stdinName() string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "stdin.md"
}

func (cfg *MainConfig) parseOpts() parser.Options {
	return parser.Options{
		MarkdownExtensions:   splitList(cfg.Ext),
		PDFFallbackPdftotext: true,
	}
}

// useColor reports whether output to w should be colored: -color and
// -no-color win, otherwise color is used when w is a terminal.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	switch {
	case cfg.NoColor:
		return false
	case cfg.Color:
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type DescribeConfig struct {
	*MainConfig

	JSON bool `cli:"name=json aliases=j desc='print description lines as json'"`

	Describe *cli.Command
}

type ImagesConfig struct {
	*MainConfig

	Images *cli.Command
}

type RewriteConfig struct {
	*MainConfig

	Mapping string `cli:"name=m aliases=mapping desc='json or yaml file mapping old image references to new ones'"`
	Diff    bool   `cli:"name=diff desc='print a diff instead of the rewritten markdown'"`

	Rewrite *cli.Command
}

type GenerateConfig struct {
	*MainConfig

	Generate *cli.Command
}

type TreeConfig struct {
	*MainConfig

	Tree *cli.Command
}
