package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/scott-cotton/cli"

	"github.com/dgallion1/docpass/internal/convert"
	"github.com/dgallion1/docpass/internal/parser"
)

func docpassMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Color && cfg.NoColor {
		return fmt.Errorf("%w: must specify at most one of -color -no-color", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// document is one parsed input.
type document struct {
	name string
	conv *convert.Converter
}

// openDocuments parses every file in args, or stdin when args is empty or "-".
func openDocuments(cfg *MainConfig, cc *cli.Context, args []string) ([]document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	log := cfg.logger()
	docs := make([]document, 0, len(args))
	for _, arg := range args {
		name := arg
		if arg == "-" {
			name = cfg.stdinName()
		}
		data, err := readInput(cc, arg)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
		p, err := parser.ForFileWith(name, cfg.parseOpts())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		conv, err := convert.NewWith(p, data, name, log)
		if err != nil {
			return nil, err
		}
		log.Debug("parsed", "file", name, "size", humanize.Bytes(uint64(len(data))), "nodes", len(conv.Page().Nodes))
		docs = append(docs, document{name: name, conv: conv})
	}
	return docs, nil
}

func readInput(cc *cli.Context, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(cc.In)
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// header separates per-file output when more than one document is printed.
func header(w io.Writer, docs []document, i int) {
	if len(docs) < 2 {
		return
	}
	if i > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "==> %s <==\n", docs[i].name)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func images(cfg *ImagesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Images.Parse(cc, args)
	if err != nil {
		return err
	}
	docs, err := openDocuments(cfg.MainConfig, cc, args)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		header(cc.Out, docs, i)
		for _, uri := range doc.conv.ImageURLs() {
			fmt.Fprintln(cc.Out, uri)
		}
	}
	return nil
}

func generate(cfg *GenerateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Generate.Parse(cc, args)
	if err != nil {
		return err
	}
	docs, err := openDocuments(cfg.MainConfig, cc, args)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		header(cc.Out, docs, i)
		io.WriteString(cc.Out, doc.conv.Generate())
	}
	return nil
}
