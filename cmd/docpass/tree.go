package main

import (
	"github.com/k0kubun/pp"
	"github.com/scott-cotton/cli"
)

func tree(cfg *TreeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tree.Parse(cc, args)
	if err != nil {
		return err
	}
	docs, err := openDocuments(cfg.MainConfig, cc, args)
	if err != nil {
		return err
	}
	pp.ColoringEnabled = cfg.useColor(cc.Out)
	for i, doc := range docs {
		header(cc.Out, docs, i)
		if _, err := pp.Fprintln(cc.Out, doc.conv.Page()); err != nil {
			return err
		}
	}
	return nil
}
