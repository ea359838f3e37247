package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/config"
	logpkg "github.com/kailas-cloud/sigdex/internal/logger"
	"github.com/kailas-cloud/sigdex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "sigdex",
	Short: "Collect community signals and search them with hybrid retrieval",
	Long: `sigdex collects posts, stories, issues and launches from Reddit,
Hacker News, GitHub and Product Hunt, analyzes and embeds them, and serves
hybrid (vector + keyword) search over the resulting index.

Examples:
  sigdex serve --env prod
  sigdex collect "invoice reconciliation pain"
  sigdex search "slow CI builds" --platforms reddit,hackernews --limit 5`,
	Version:       version.Version + " (" + version.Commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (overrides --env lookup)")
	rootCmd.PersistentFlags().String("env", "", "environment name used to locate config/<env>.yaml (default: $ENV or local)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadRuntime resolves config and logger from the persistent flags.
func loadRuntime(cmd *cobra.Command) (config.Config, *zap.Logger, string, error) {
	path, _ := cmd.Flags().GetString("config")
	env, _ := cmd.Flags().GetString("env")
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, env, nil
}
