package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcporter/internal/formatting"
	"mcporter/internal/runtime"
)

var (
	listFormat        string
	listIncludeSchema bool
)

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list <server>",
		Short: "List the tools one MCP server exposes",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
	registerConfigFlags(c.Flags())
	c.Flags().BoolVar(&flagNoAuth, "no-auth", false, "do not attempt interactive authorization")
	c.Flags().StringVarP(&listFormat, "format", "f", "console", "output format: console, table, json, yaml")
	c.Flags().BoolVar(&listIncludeSchema, "schema", false, "include each tool's input schema")
	return c
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	rt, err := newRuntime(store)
	if err != nil {
		return err
	}
	defer rt.Close("")

	name, err := resolveServer(rt, args[0])
	if err != nil {
		return err
	}

	tools, err := rt.ListTools(cmd.Context(), name, runtime.ListOptions{
		AutoAuthorize: !flagNoAuth,
		IncludeSchema: listIncludeSchema,
	})
	if err != nil {
		return wrapConnectError(name, !flagNoAuth, fmt.Errorf("listing tools for %s: %w", name, err))
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: formatting.OutputFormat(listFormat),
	})
	fmt.Println(formatter.FormatToolsList(tools))
	return nil
}
