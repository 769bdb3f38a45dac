package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/ingest"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/store"
)

func newRemoveCmd(global *globalOptions) *cobra.Command {
	var libVersion string

	cmd := &cobra.Command{
		Use:   "remove <library-id>",
		Short: "Remove an indexed library",
		Long: `Remove a library from the index.

Removes one version when --lib-version is given or the ID carries a
version suffix, otherwise removes every version of the library.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), cmd, global, args[0], libVersion)
		},
	}

	cmd.Flags().StringVar(&libVersion, "lib-version", "", "Library version to remove (default: all versions)")

	return cmd
}

func runRemove(ctx context.Context, cmd *cobra.Command, global *globalOptions, libraryID, libVersion string) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupCLILogging(cfg.Server.LogLevel)
	if err == nil {
		defer cleanup()
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	svc := ingest.NewService(st, nil, cfg.Database.Path)
	if err := svc.Remove(ctx, libraryID, libVersion); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if libVersion != "" {
		out.Successf("Removed %s@%s", libraryID, libVersion)
	} else {
		out.Successf("Removed %s", libraryID)
	}
	return nil
}
