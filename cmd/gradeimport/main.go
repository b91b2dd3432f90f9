// Command gradeimport previews and commits grade sheets from the command line.
//
//	gradeimport preview --file year9.csv
//	gradeimport commit --file year9.csv --operator <uuid> --apply
//	gradeimport batches
//	gradeimport rollback <batch-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tutorly/gradeimport/internal/config"
	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/logging"
	"github.com/tutorly/gradeimport/internal/store"
)

type rootOptions struct {
	databaseURL string
	logLevel    string
	jsonOutput  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(err))
		if !core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "detail:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "gradeimport",
		Short:         "Reconcile grade sheets against the student roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Overload()
			logging.Setup(os.Stderr, opts.logLevel, "text")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (default: $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newPreviewCmd(&opts),
		newCommitCmd(&opts),
		newBatchesCmd(&opts),
		newRollbackCmd(&opts),
	)
	return cmd
}

// cliLookup reads the environment with the settings a local operator run
// does not need switched off. An explicit --database-url wins.
func cliLookup(databaseURL string) config.LookupFunc {
	return func(key string) (string, bool) {
		switch key {
		case "AUTH_REQUIRE":
			return "false", true
		case "DATABASE_URL":
			if databaseURL != "" {
				return databaseURL, true
			}
		}
		return os.LookupEnv(key)
	}
}

// openService connects to the database and builds a service on it.
// The returned func closes the pool.
func openService(ctx context.Context, opts *rootOptions) (*core.Service, func(), error) {
	cfg, err := config.LoadFrom(cliLookup(opts.databaseURL))
	if err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	db := store.New(pool)
	svc := core.NewService(db, db, db, core.Options{
		MaxConcurrentParses: 1,
		CommitTimeout:       cfg.Upload.CommitTimeout,
	})
	return svc, pool.Close, nil
}
