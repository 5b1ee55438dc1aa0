// -------------------------------------------------------------------------------------------------
// stackctl: operator tooling around the stack archive. Lists what each environment deploys,
// validates the environment config against the registered stacks, and inspects synthesized
// Terraform JSON without loading it into a full Terraform run.
// -------------------------------------------------------------------------------------------------
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/stacks"
)

func main() {
	log.SetHandler(clihandler.Default)

	app := newRootCommand()
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Error("stackctl failed")
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "stackctl",
		Usage: "inspect and validate the stack archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the environment config file",
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			validateCommand(),
			inspectCommand(),
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list environments and the stacks each one deploys",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := appconfig.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			out := cmd.Root().Writer

			names := make([]string, 0, len(cfg.Environments))
			for name := range cfg.Environments {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				env := cfg.Environments[name]
				fmt.Fprintf(out, "%s (%s, suffix %q)\n", name, env.Region, env.Suffix)
				for _, s := range env.Stacks {
					fmt.Fprintf(out, "  %s\n", s)
				}
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate the environment config against the registered stacks",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := appconfig.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if err := appconfig.Validate(cfg, stacks.Names()); err != nil {
				return err
			}
			log.Infof("%d environments OK", len(cfg.Environments))
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "summarize a synthesized Terraform JSON artifact (cdktf.out/stacks/<stack>/cdk.tf.json)",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("inspect requires a path to a synthesized Terraform JSON file")
			}
			doc, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !gjson.ValidBytes(doc) {
				return fmt.Errorf("%s is not valid JSON", path)
			}

			counts := resourceCounts(string(doc))
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, t)
			}
			sort.Strings(types)

			out := cmd.Root().Writer
			fmt.Fprintln(out, "resources:")
			for _, t := range types {
				fmt.Fprintf(out, "  %-40s %d\n", t, counts[t])
			}
			fmt.Fprintln(out, "outputs:")
			for _, name := range outputNames(string(doc)) {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

// resourceCounts tallies declared resources by Terraform type.
func resourceCounts(doc string) map[string]int {
	counts := map[string]int{}
	gjson.Get(doc, "resource").ForEach(func(typ, instances gjson.Result) bool {
		counts[typ.String()] = len(instances.Map())
		return true
	})
	return counts
}

// outputNames returns the declared output names in sorted order.
func outputNames(doc string) []string {
	var names []string
	gjson.Get(doc, "output").ForEach(func(name, _ gjson.Result) bool {
		names = append(names, name.String())
		return true
	})
	sort.Strings(names)
	return names
}
