package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/jump"
	"github.com/vertex-lab/topicrank/pkg/matrix"
	"github.com/vertex-lab/topicrank/pkg/models"
	"github.com/vertex-lab/topicrank/pkg/pagerank"
	"github.com/vertex-lab/topicrank/pkg/store/redistore"
	"github.com/vertex-lab/topicrank/pkg/utils/sliceutils"
)

// rankOptions are the flags of the rank command that are not part of the Config.
type rankOptions struct {
	GraphPath   string
	TagsPath    string
	Name        string
	Topics      []string
	ProfilePath string
	Top         int
	Exclude     string
	JSON        bool
	Save        bool
}

var rankOpts rankOptions

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the pages of a graph by the topics of a profile",
	Example: `  topicrank rank --graph graph.json --tags tags.json --topic science=5 --topic history=2
  topicrank rank --name wiki --profile profile.json --top 10 --exclude Category,Help,language --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := sessionContext(config.Timeout)
		defer cancel()
		return runRank(ctx, rankOpts, config, cmd.OutOrStdout())
	},
}

func init() {
	flags := rankCmd.Flags()
	flags.StringVar(&rankOpts.GraphPath, "graph", "", "JSON file of the link graph {node: [targets]}")
	flags.StringVar(&rankOpts.TagsPath, "tags", "", "JSON file of the tags {node: \"a, b\" | [a, b]}")
	flags.StringVar(&rankOpts.Name, "name", "", "name of a graph imported in Redis, used instead of --graph and --tags")
	flags.StringArrayVar(&rankOpts.Topics, "topic", nil, "topic rating as topic=rating (repeatable, order is kept)")
	flags.StringVar(&rankOpts.ProfilePath, "profile", "", "JSON file with the profile [{\"topic\": t, \"rating\": r}]")
	flags.IntVar(&rankOpts.Top, "top", 20, "number of pages to print, 0 prints all of them")
	flags.StringVar(&rankOpts.Exclude, "exclude", "", "comma separated patterns: pages whose name contains any of them are left out of the ranking")
	flags.BoolVar(&rankOpts.JSON, "json", false, "print the result as JSON")
	flags.BoolVar(&rankOpts.Save, "save", false, "save the ranking in Redis under --name")

	flags.Float64("alpha", pagerank.DefaultAlpha, "probability of jumping back to the topic (overrides ALPHA)")
	flags.Float64("epsilon", pagerank.DefaultEpsilon, "L1 convergence threshold (overrides EPSILON)")
	flags.Int("max-iterations", pagerank.DefaultMaxIterations, "maximum number of power iterations (overrides MAX_ITERATIONS)")
	flags.String("match", "substring", "how topics match tags: substring or exact (overrides MATCH_MODE)")
	flags.String("dangling", "zero", "rows of pages without links: zero or uniform (overrides DANGLING)")
	flags.Bool("skip-not-converged", false, "skip the topics that don't converge instead of failing (overrides SKIP_NOT_CONVERGED)")
	flags.Int("workers", 0, "number of topics solved concurrently (overrides WORKERS)")
	flags.Bool("random-start", false, "start the iterations from a random distribution (overrides RANDOM_START)")
	flags.Int64("seed", 0, "seed of the random starts (overrides SEED)")

	rootCmd.AddCommand(rankCmd)
}

// applyEngineFlags() overrides the engine config with the flags set by the user.
func applyEngineFlags(cmd *cobra.Command, config *Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("alpha") {
		config.Engine.Params.Alpha, _ = flags.GetFloat64("alpha")
	}

	if flags.Changed("epsilon") {
		config.Engine.Params.Epsilon, _ = flags.GetFloat64("epsilon")
	}

	if flags.Changed("max-iterations") {
		config.Engine.Params.MaxIterations, _ = flags.GetInt("max-iterations")
	}

	if flags.Changed("match") {
		mode, _ := flags.GetString("match")
		if config.Engine.Match, err = jump.ParseMatchMode(mode); err != nil {
			return err
		}
	}

	if flags.Changed("dangling") {
		policy, _ := flags.GetString("dangling")
		if config.Engine.Dangling, err = matrix.ParseDanglingPolicy(policy); err != nil {
			return err
		}
	}

	if flags.Changed("skip-not-converged") {
		config.Engine.Convergence = pagerank.FailOnNotConverged
		if skip, _ := flags.GetBool("skip-not-converged"); skip {
			config.Engine.Convergence = pagerank.SkipNotConverged
		}
	}

	if flags.Changed("workers") {
		config.Engine.Workers, _ = flags.GetInt("workers")
	}

	if flags.Changed("random-start") {
		config.Engine.RandomStart, _ = flags.GetBool("random-start")
	}

	if flags.Changed("seed") {
		config.Engine.Seed, _ = flags.GetInt64("seed")
	}

	return nil
}

/*
runRank() loads the graph (from files or from Redis), combines the topics of
the profile and writes the ranking to out.

When the graph comes from Redis, the topic vectors solved by previous sessions with the
same parameters are reused, and the newly solved ones are saved for the next sessions.
*/
func runRank(ctx context.Context, opts rankOptions, config *Config, out io.Writer) error {
	profile, err := buildProfile(opts.Topics, opts.ProfilePath, config.MinRating, config.MaxRating)
	if err != nil {
		return err
	}

	if opts.Save && opts.Name == "" {
		return ErrMissingName
	}

	var S *graph.Store
	var RS *redistore.Store

	switch {
	case opts.GraphPath != "" && opts.Name != "":
		return ErrTooManyGraphs

	case opts.GraphPath != "":
		if opts.TagsPath == "" {
			return ErrMissingTags
		}

		S, err = graph.LoadFiles(opts.GraphPath, opts.TagsPath)
		if err != nil {
			return err
		}

	case opts.Name != "":
		var disconnect func()
		RS, disconnect, err = connect(ctx, config.RedisAddress)
		if err != nil {
			return err
		}
		defer disconnect()

		S, err = RS.LoadGraph(ctx, opts.Name)
		if err != nil {
			return err
		}

	default:
		return ErrNoGraph
	}

	if S.UnknownTagged() > 0 {
		config.Log.Warn("%d tagged nodes are not in the graph: their tags are ignored", S.UnknownTagged())
	}

	E, err := pagerank.NewEngine(S, config.Engine, config.Log)
	if err != nil {
		return err
	}

	var preloaded map[string]models.Vector
	if RS != nil {
		preloaded = preloadTopics(ctx, RS, opts.Name, E, config)
	}

	result, err := E.Combine(ctx, profile)
	if err != nil {
		return err
	}
	config.Log.Info("ranking computed with %d solves", E.Solves())

	if RS != nil {
		saveTopics(ctx, RS, opts.Name, E, preloaded, config)
	}

	ranking := result.Ranking.Exclude(sliceutils.SplitTrim(opts.Exclude, ","))
	if opts.Save {
		if err := RS.SaveRanking(ctx, opts.Name, ranking); err != nil {
			return err
		}
		config.Log.Info("ranking saved under %q", redistore.KeyRanking(opts.Name))
	}

	return printResult(out, result, ranking.Top(opts.Top), opts.JSON)
}

// preloadTopics() adds to the engine cache the topic vectors saved by previous
// sessions. Failures are logged, since the topics can always be solved again.
func preloadTopics(ctx context.Context, RS *redistore.Store, name string, E *pagerank.Engine, config *Config) map[string]models.Vector {
	vectors, err := RS.TopicRanks(ctx, name, E.Fingerprint())
	if err != nil {
		config.Log.Warn("failed to load the saved topics: %v", err)
		return nil
	}

	if err := E.Preload(vectors); err != nil {
		config.Log.Warn("failed to preload the saved topics: %v", err)
		return nil
	}

	config.Log.Info("%d saved topics preloaded", len(vectors))
	return vectors
}

// saveTopics() saves the topic vectors solved in this session.
func saveTopics(ctx context.Context, RS *redistore.Store, name string, E *pagerank.Engine, preloaded map[string]models.Vector, config *Config) {
	solved := E.Cache().Vectors()
	topics := make([]string, 0, len(solved))
	for topic := range solved {
		topics = append(topics, topic)
	}

	saved := make([]string, 0, len(preloaded))
	for topic := range preloaded {
		saved = append(saved, topic)
	}

	fresh := make(map[string]models.Vector)
	for _, topic := range sliceutils.Difference(topics, saved) {
		fresh[topic] = solved[topic]
	}

	if err := RS.SaveTopicRanks(ctx, name, E.Fingerprint(), fresh); err != nil {
		config.Log.Warn("failed to save the solved topics: %v", err)
	}
}

type topicOutput struct {
	Topic      string  `json:"topic"`
	Weight     float64 `json:"weight"`
	Matches    int     `json:"matches"`
	Iterations int     `json:"iterations"`
	Warning    string  `json:"warning,omitempty"`
}

type rankOutput struct {
	Topics  []topicOutput  `json:"topics"`
	Ranking models.Ranking `json:"ranking"`
}

// printResult() writes the topics of the result and the ranking to out, as text or JSON.
func printResult(out io.Writer, result *pagerank.Result, ranking models.Ranking, asJSON bool) error {
	output := rankOutput{
		Topics:  make([]topicOutput, len(result.Topics)),
		Ranking: ranking,
	}

	for i, topic := range result.Topics {
		output.Topics[i] = topicOutput{
			Topic:      topic.Topic,
			Weight:     topic.Weight,
			Matches:    topic.Matches,
			Iterations: topic.Stats.Iterations,
		}

		if topic.Warning != nil {
			output.Topics[i].Warning = topic.Warning.Error()
		}
	}

	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	fmt.Fprintln(out, "Topics:")
	for _, topic := range output.Topics {
		if topic.Warning != "" {
			fmt.Fprintf(out, "  %-24s weight %.3f  WARNING: %v\n", topic.Topic, topic.Weight, topic.Warning)
			continue
		}
		fmt.Fprintf(out, "  %-24s weight %.3f  matches %d  iterations %d\n",
			topic.Topic, topic.Weight, topic.Matches, topic.Iterations)
	}

	return printRanking(out, ranking)
}

func printRanking(out io.Writer, ranking models.Ranking) error {
	if _, err := fmt.Fprintln(out, "Ranking:"); err != nil {
		return err
	}

	for i, ns := range ranking {
		if _, err := fmt.Fprintf(out, "  %4d. %-40s %.6f\n", i+1, ns.Node, ns.Score); err != nil {
			return err
		}
	}
	return nil
}

//--------------------------ERROR-CODES--------------------------

var ErrNoGraph = errors.New("no graph: use --graph and --tags, or --name")
var ErrTooManyGraphs = errors.New("use either --graph and --tags, or --name, not both")
var ErrMissingTags = errors.New("--graph requires --tags")
var ErrMissingName = errors.New("--save requires --name")
