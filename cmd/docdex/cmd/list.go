package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/store"
)

func newListCmd(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd, global, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, global *globalOptions, format string) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	libs, err := st.ListLibraries(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(libs)
	}

	out := output.New(cmd.OutOrStdout())
	if len(libs) == 0 {
		out.Status("", "No libraries indexed. Run 'docdex ingest' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LIBRARY\tVERSION\tSNIPPETS\tTRUST\tINGESTED")
	for _, lib := range libs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%s\n",
			lib.ID, lib.Version, lib.TotalSnippets, lib.TrustScore,
			lib.IngestedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
