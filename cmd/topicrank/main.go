package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/topicrank/pkg/store/redistore"
	"github.com/vertex-lab/topicrank/pkg/utils/redisutils"
)

var config *Config

var rootCmd = &cobra.Command{
	Use:               "topicrank",
	Short:             "Rank the pages of a tagged link graph by the topics a user is interested in",
	Long:              "Topicrank solves a topic-specific pagerank for every topic of the user's profile, and combines them into a single ranking weighted by the user's ratings.",
	SilenceUsage:      true,
	PersistentPreRunE: setupConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if config != nil {
			config.CloseLogs()
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration resulting from the environment and the flags",
	Run: func(cmd *cobra.Command, args []string) {
		config.Print()
	},
}

func main() {
	Execute()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("redis", "", "address of the Redis server (overrides REDIS_ADDR)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "deadline of the whole session, 0 means none (overrides TIMEOUT)")
	rootCmd.AddCommand(configCmd)
}

// setupConfig() loads the config from the environment and applies the persistent flags.
func setupConfig(cmd *cobra.Command, args []string) error {
	var err error
	config, err = LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("redis") {
		config.RedisAddress, _ = cmd.Flags().GetString("redis")
	}

	if cmd.Flags().Changed("timeout") {
		config.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	if cmd.Flags().Lookup("alpha") != nil {
		if err := applyEngineFlags(cmd, config); err != nil {
			return err
		}
	}

	return config.Validate()
}

// sessionContext() returns a context that is canceled when a SIGINT or SIGTERM
// is received, or when the timeout (if positive) expires.
func sessionContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(ctx, cancel)

	if timeout <= 0 {
		return ctx, cancel
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancelTimeout()
		cancel()
	}
}

// handleSignals listens for OS signals and triggers context cancellation.
func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	select {
	case <-signalChan:
		fmt.Fprintf(os.Stderr, "\nSignal received. Shutting down...\n")
		cancel()
	case <-ctx.Done():
	}
}

// connect() returns a redistore.Store connected to addr, and the function to close the connection.
func connect(ctx context.Context, addr string) (*redistore.Store, func(), error) {
	cl := redisutils.SetupClient(addr)
	if err := redisutils.Ping(ctx, cl); err != nil {
		cl.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %v: %w", addr, err)
	}

	RS, err := redistore.NewStore(cl)
	if err != nil {
		cl.Close()
		return nil, nil, err
	}

	return RS, func() { cl.Close() }, nil
}
