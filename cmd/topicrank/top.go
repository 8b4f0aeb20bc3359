package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/topicrank/pkg/store/redistore"
)

type topOptions struct {
	Name string
	Top  int
	JSON bool
}

var topOpts topOptions

var topCmd = &cobra.Command{
	Use:     "top",
	Short:   "Print a ranking saved in Redis by rank --save",
	Example: `  topicrank top --name wiki --top 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := sessionContext(config.Timeout)
		defer cancel()

		RS, disconnect, err := connect(ctx, config.RedisAddress)
		if err != nil {
			return err
		}
		defer disconnect()

		return runTop(ctx, topOpts, RS, cmd.OutOrStdout())
	},
}

func init() {
	flags := topCmd.Flags()
	flags.StringVar(&topOpts.Name, "name", "", "name of the saved ranking")
	flags.IntVar(&topOpts.Top, "top", 20, "number of pages to print, 0 prints all of them")
	flags.BoolVar(&topOpts.JSON, "json", false, "print the ranking as JSON")
	topCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(topCmd)
}

func runTop(ctx context.Context, opts topOptions, RS *redistore.Store, out io.Writer) error {
	if opts.Name == "" {
		return ErrMissingName
	}

	ranking, err := RS.Ranking(ctx, opts.Name, opts.Top)
	if err != nil {
		return err
	}

	if opts.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ranking)
	}
	return printRanking(out, ranking)
}
