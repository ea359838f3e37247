package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/domain/search/request"
	collectuc "github.com/kailas-cloud/sigdex/internal/usecase/collect"
)

// withApp loads config, builds the app, runs fn and tears everything down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, _, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(ctx)
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- collect ---

var collectCmd = &cobra.Command{
	Use:   "collect <query>",
	Short: "Collect, enrich and index signals for a query right now",
	Long: `Fetch the query from every enabled platform, analyze and embed the
results, write them to the index and print the stored signals.

Examples:
  sigdex collect "kubernetes cost visibility"
  sigdex collect "invoice reconciliation" --platforms reddit,github`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms, _ := cmd.Flags().GetString("platforms")
		query := strings.Join(args, " ")

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if names := splitCSV(platforms); len(names) > 0 {
				enabled, err := collectuc.ParsePlatforms(names)
				if err != nil {
					return err
				}
				if err := a.collect.SetEnabled(enabled); err != nil {
					return err
				}
			}
			if _, err := a.signals.EnsureIndex(ctx); err != nil {
				return fmt.Errorf("ensure index: %w", err)
			}

			signals, err := a.collect.CollectNow(ctx, query)
			if err != nil {
				return err
			}
			a.logger.Info("Collection finished", zap.String("query", query), zap.Int("signals", len(signals)))
			return printJSON(cmd.OutOrStdout(), signals)
		})
	},
}

func init() {
	collectCmd.Flags().String("platforms", "", "comma-separated platforms to query (default: collect.enabled_platforms)")
	rootCmd.AddCommand(collectCmd)
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a hybrid search against the signal index",
	Long: `Run the same hybrid retrieval the HTTP API serves and print the response.

Examples:
  sigdex search "slow CI builds"
  sigdex search "pricing page confusion" --platforms reddit --limit 5 --rerank`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms, _ := cmd.Flags().GetString("platforms")
		tags, _ := cmd.Flags().GetString("tags")
		problemsOnly, _ := cmd.Flags().GetBool("problems-only")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		rerank, _ := cmd.Flags().GetBool("rerank")

		parsed, err := collectuc.ParsePlatforms(splitCSV(platforms))
		if err != nil {
			return err
		}
		req, err := request.New(strings.Join(args, " "), request.Filters{
			Platforms:    parsed,
			Tags:         splitCSV(tags),
			ProblemsOnly: problemsOnly,
		}, limit, offset, rerank)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.search.Search(ctx, &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		})
	},
}

func init() {
	searchCmd.Flags().String("platforms", "", "comma-separated platform filter")
	searchCmd.Flags().String("tags", "", "comma-separated tag filter")
	searchCmd.Flags().Bool("problems-only", false, "only return signals that describe a problem")
	searchCmd.Flags().Int("limit", request.DefaultLimit, "maximum number of results")
	searchCmd.Flags().Int("offset", 0, "number of results to skip")
	searchCmd.Flags().Bool("rerank", false, "rerank candidates with the cross-encoder when available")
	rootCmd.AddCommand(searchCmd)
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexed signal counts per platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.signals.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the signal search index",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the search index if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			created, err := a.signals.EnsureIndex(ctx)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Index %s created.\n", a.signals.IndexName())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Index %s already exists.\n", a.signals.IndexName())
			}
			return nil
		})
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the search index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		deleteDocs, _ := cmd.Flags().GetBool("delete-docs")
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("refusing to drop the index without --confirm")
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.signals.DropIndex(ctx, deleteDocs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index %s dropped.\n", a.signals.IndexName())
			return nil
		})
	},
}

func init() {
	indexDropCmd.Flags().Bool("delete-docs", false, "also delete every stored signal")
	indexDropCmd.Flags().Bool("confirm", false, "confirm the drop")
	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexDropCmd)
	rootCmd.AddCommand(indexCmd)
}
