package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/qdex/internal/domain"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
)

// indexAdmin is the slice of the session service the index commands need.
type indexAdmin interface {
	Create(ctx context.Context, chamber, version string) (domsession.Session, error)
	Delete(ctx context.Context, chamber, version string) (domsession.Session, bool, error)
	List(ctx context.Context) ([]string, error)
}

// openIndexAdmin connects to the configured store. Replaced in tests.
var openIndexAdmin = func(ctx context.Context, env string) (indexAdmin, func(), error) {
	cfg, logger, err := loadRuntime(env)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	closeFn := func() {
		store.Close()
		_ = logger.Sync()
	}
	return sessions(store, cfg, logger), closeFn, nil
}

func newIndexCmd(env *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage session indices",
	}
	cmd.AddCommand(newIndexCreateCmd(env), newIndexDropCmd(env), newIndexListCmd(env))
	return cmd
}

func withAdmin(cmd *cobra.Command, env string, fn func(context.Context, indexAdmin) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	admin, closeFn, err := openIndexAdmin(ctx, env)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, admin)
}

func newIndexCreateCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <chamber> <version>",
		Short: "Create the index of a chamber sitting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, *env, func(ctx context.Context, admin indexAdmin) error {
				sess, err := admin.Create(ctx, args[0], args[1])
				switch {
				case errors.Is(err, domain.ErrIndexAlreadyExists):
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "index %s already exists\n", sess.Name())
					return err
				case err != nil:
					return fmt.Errorf("create index: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created index %s\n", sess.Name())
				return err
			})
		},
	}
}

func newIndexDropCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <chamber> <version>",
		Short: "Drop the index of a chamber sitting with all its records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, *env, func(ctx context.Context, admin indexAdmin) error {
				sess, deleted, err := admin.Delete(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("drop index: %w", err)
				}
				if !deleted {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "index %s not found\n", sess.Name())
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "dropped index %s\n", sess.Name())
				return err
			})
		},
	}
}

func newIndexListCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, *env, func(ctx context.Context, admin indexAdmin) error {
				names, err := admin.List(ctx)
				if err != nil {
					return fmt.Errorf("list indices: %w", err)
				}
				for _, name := range names {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
