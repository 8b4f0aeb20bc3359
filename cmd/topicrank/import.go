package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/store/redistore"
)

type importOptions struct {
	GraphPath string
	TagsPath  string
	Name      string
}

var importOpts importOptions

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Load a graph and its tags from files and save them in Redis under a name",
	Example: `  topicrank import --graph graph.json --tags tags.json --name wiki`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := sessionContext(config.Timeout)
		defer cancel()

		RS, disconnect, err := connect(ctx, config.RedisAddress)
		if err != nil {
			return err
		}
		defer disconnect()

		return runImport(ctx, importOpts, RS, config, cmd.OutOrStdout())
	},
}

func init() {
	flags := importCmd.Flags()
	flags.StringVar(&importOpts.GraphPath, "graph", "", "JSON file of the link graph {node: [targets]}")
	flags.StringVar(&importOpts.TagsPath, "tags", "", "JSON file of the tags {node: \"a, b\" | [a, b]}")
	flags.StringVar(&importOpts.Name, "name", "", "name of the graph in Redis")
	importCmd.MarkFlagRequired("graph")
	importCmd.MarkFlagRequired("tags")
	importCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(importCmd)
}

// runImport() loads the graph files and saves them in Redis, replacing any graph with the same name.
func runImport(ctx context.Context, opts importOptions, RS *redistore.Store, config *Config, out io.Writer) error {
	if opts.Name == "" {
		return ErrMissingName
	}

	S, err := graph.LoadFiles(opts.GraphPath, opts.TagsPath)
	if err != nil {
		return err
	}

	if S.UnknownTagged() > 0 {
		config.Log.Warn("%d tagged nodes are not in the graph: their tags are ignored", S.UnknownTagged())
	}

	if err := RS.SaveGraph(ctx, opts.Name, S); err != nil {
		return err
	}

	config.Log.Info("graph %q imported", opts.Name)
	_, err = fmt.Fprintf(out, "imported %q: %d nodes\n", opts.Name, S.Size())
	return err
}
