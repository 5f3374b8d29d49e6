package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdbip/agiler-write-model/internal/projection"
)

// RebuildOptions holds flags for the rebuild command.
type RebuildOptions struct {
	*RootOptions
	PageSize int
}

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RebuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the items projection from the event log",
		Long: `Drop every row of the items table and replay the whole event log into it.

Run it after a projection failure was logged or after changing projection
rules. Writers should be stopped while it runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.PageSize, "page-size", 500, "positions read per page")

	return cmd
}

type rebuildResult struct {
	Events int `json:"events"`
}

func (r rebuildResult) String() string {
	return fmt.Sprintf("projection rebuilt from %d events\n", r.Events)
}

func runRebuild(opts *RebuildOptions, cmd *cobra.Command) error {
	ss, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := ss.openStore()
	if err != nil {
		return err
	}
	defer ss.closeStore(st)

	proj, err := projection.New(cmd.Context(), st, ss.log)
	if err != nil {
		return ss.report("failed to open projection", err)
	}
	n, err := proj.Rebuild(cmd.Context(), st, opts.PageSize)
	if err != nil {
		return ss.report("failed to rebuild projection", err)
	}
	return ss.out.Success(rebuildResult{Events: n})
}
