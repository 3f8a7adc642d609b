package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "docpass").
		WithSynopsis("docpass [opts] command [opts] [files]").
		WithDescription("docpass inspects and rewrites documents through a shared document tree.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return docpassMain(cfg, cc, args)
		}).
		WithSubs(
			DescribeCommand(cfg),
			ImagesCommand(cfg),
			RewriteCommand(cfg),
			GenerateCommand(cfg),
			TreeCommand(cfg))
}

func DescribeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DescribeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("describe").
		WithAliases("d", "desc").
		WithSynopsis("describe [-json] [files]").
		WithDescription("print a short preview of each document").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return describeFiles(cfg, cc, args)
		})
	cfg.Describe = cmd
	return cmd
}

func ImagesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ImagesConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("images").
		WithAliases("i", "img").
		WithSynopsis("images [files]").
		WithDescription("list the distinct image references of each document").
		WithRun(func(cc *cli.Context, args []string) error {
			return images(cfg, cc, args)
		})
	cfg.Images = cmd
	return cmd
}

func RewriteCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RewriteConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("rewrite").
		WithAliases("r", "rw").
		WithSynopsis("rewrite -m mapping [-diff] [files]").
		WithDescription("replace image references and print the resulting markdown").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return rewrite(cfg, cc, args)
		})
	cfg.Rewrite = cmd
	return cmd
}

func GenerateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GenerateConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("generate").
		WithAliases("g", "gen").
		WithSynopsis("generate [files]").
		WithDescription("render each document as markdown").
		WithRun(func(cc *cli.Context, args []string) error {
			return generate(cfg, cc, args)
		})
	cfg.Generate = cmd
	return cmd
}

func TreeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TreeConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("tree").
		WithAliases("t").
		WithSynopsis("tree [files]").
		WithDescription("dump the parsed document tree").
		WithRun(func(cc *cli.Context, args []string) error {
			return tree(cfg, cc, args)
		})
	cfg.Tree = cmd
	return cmd
}
