package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timmy/gemstore/internal/app"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/service"
	"github.com/timmy/gemstore/internal/source"
)

type cli struct {
	log        *logger.Logger
	configPath string
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	c := &cli{log: log}
	root := &cobra.Command{
		Use:           "gemctl",
		Short:         "Gemstore catalog administration",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file")

	root.AddCommand(
		c.migrateCmd(),
		c.importCmd(),
		c.reindexCmd(),
		c.sourcesCmd(),
		c.tokenCmd(),
	)
	return root
}

// open loads configuration and builds the application with a context that
// is cancelled on SIGINT/SIGTERM.
func (c *cli) open(cmd *cobra.Command) (context.Context, *app.App, func(), error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.SetComponent(ctx, "gemctl")

	a, err := app.New(ctx, cfg, c.log)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, a, func() {
		stop()
		_ = a.Close()
	}, nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the attribute vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, closeFn, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := repository.Migrate(a.DB); err != nil {
				return err
			}
			logger.CtxInfo(ctx, "Migrations applied")
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var (
		kind  string
		name  string
		limit int
		force bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import gemstones from a staging directory or the HTTP feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, closeFn, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			sources, err := a.Sources()
			if err != nil {
				return err
			}
			selected, err := selectSources(sources, kind, name)
			if err != nil {
				return err
			}

			for _, src := range selected {
				stats, err := a.Import.ImportFromSource(ctx, src, limit, &service.ImportOptions{Force: force})
				if err != nil {
					return fmt.Errorf("import from %s failed: %w", src.GetSourceID(), err)
				}
				c.log.WithFields(logger.Fields{
					"source":    src.GetSourceID(),
					"job_id":    stats.JobID,
					"total":     stats.TotalItems,
					"processed": stats.ProcessedItems,
					"skipped":   stats.SkippedItems,
					"failed":    stats.FailedItems,
				}).Info("Import completed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "source", "staging", "Source kind: staging or feed")
	cmd.Flags().StringVar(&name, "name", "", "Staging directory name (default: every staging source)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items to import per source (0 = no limit)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-import items whose serial number already exists")
	return cmd
}

// selectSources picks the sources of one kind, optionally narrowed to a name.
func selectSources(sources map[string]source.Source, kind, name string) ([]source.Source, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "staging" && kind != "feed" {
		return nil, fmt.Errorf("unknown source kind %q (want staging or feed)", kind)
	}

	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []source.Source
	for _, id := range ids {
		prefix, rest, _ := strings.Cut(id, ":")
		if prefix != kind || (name != "" && rest != name) {
			continue
		}
		out = append(out, sources[id])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s source configured", kind)
	}
	return out, nil
}

func (c *cli) reindexCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Recompute the search vectors of every gemstone",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, closeFn, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := a.Catalog.ReindexAll(ctx, workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d gemstones\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent reindex transactions")
	return cmd
}

func (c *cli) sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured import sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, closeFn, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			sources, err := a.Sources()
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(sources))
			for id := range sources {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, sources[id].GetDisplayName())
			}
			return nil
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for API calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if role != auth.RoleAdmin && role != auth.RoleCustomer {
				return fmt.Errorf("unknown role %q", role)
			}
			tokens, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return err
			}
			tok, err := tokens.Issue(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "admin", "Subject user ID")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "Role claim: admin or customer")
	return cmd
}
