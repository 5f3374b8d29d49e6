package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdbip/agiler-write-model/internal/es"
)

var errNotFound = errors.New("entity not found")

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Type string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Print the event history of an entity",
		Long: `Print the type, version and events of one entity.

With --type the entity must have been created with that type.

Example:
  agiler history 0190f4e2-4a4b-7c3d-9e1f-2a3b4c5d6e7f
  agiler history --type Task --format json 0190f4e2-4a4b-7c3d-9e1f-2a3b4c5d6e7f`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "required entity type")

	return cmd
}

func runHistory(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	ss, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := ss.openStore()
	if err != nil {
		return err
	}
	defer ss.closeStore(st)

	var (
		history es.EntityHistory
		found   bool
	)
	if opts.Type != "" {
		cid, err := es.NewCanonicalEntityID(id, opts.Type)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid entity", err)
		}
		history, found, err = st.HistoryFor(cmd.Context(), cid)
		if err != nil {
			return ss.report("failed to read history", err)
		}
	} else {
		history, found, err = st.History(cmd.Context(), id)
		if err != nil {
			return ss.report("failed to read history", err)
		}
	}
	if !found {
		return ss.report("failed to read history", fmt.Errorf("%w: %s", errNotFound, id))
	}

	ss.out.VerboseLog("read %d events of %s", len(history.Events), id)
	return ss.out.Success(historyOutput{ID: id, EntityHistory: history})
}

// historyOutput prints a history as one line per event in text mode.
type historyOutput struct {
	ID string `json:"id"`
	es.EntityHistory
}

func (h historyOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", h.ID, h.Type, h.Version)
	for i, ev := range h.Events {
		details, err := json.Marshal(ev.Details)
		if err != nil {
			details = []byte(fmt.Sprintf("%v", ev.Details))
		}
		fmt.Fprintf(&b, "  %3d  %-16s %s\n", i, ev.Name, details)
	}
	return b.String()
}
