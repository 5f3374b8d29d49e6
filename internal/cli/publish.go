package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	ID      string
	Type    string
	Name    string
	Details string
	Actor   string
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Append a single event to an entity",
		Long: `Append one event as the next version of an entity.

The entity is created when it does not exist. The event is not checked
against any aggregate rules; this is an operator tool.

Example:
  agiler publish --id task-1 --type Task --name ProgressChanged \
    --details '{"progress":"completed"}' --actor ops`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "entity id (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "entity type (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "event name (required)")
	cmd.Flags().StringVar(&opts.Details, "details", "{}", "event details as a JSON object")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "acting user (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

type publishResult struct {
	Entity string `json:"entity"`
	Type   string `json:"type"`
	Event  string `json:"event"`
}

func (r publishResult) String() string {
	return fmt.Sprintf("published %s to %s %s\n", r.Event, r.Type, r.Entity)
}

func runPublish(opts *PublishOptions, cmd *cobra.Command) error {
	entity, err := es.NewCanonicalEntityID(opts.ID, opts.Type)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity", err)
	}
	details, err := parseDetails(opts.Details)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --details", err)
	}
	event, err := es.NewUnpublishedEvent(opts.Name, details)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event", err)
	}

	ss, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := ss.openStore()
	if err != nil {
		return err
	}
	defer ss.closeStore(st)

	if err := st.Publish(cmd.Context(), event, entity, opts.Actor); err != nil {
		return ss.report("failed to publish", err)
	}
	return ss.out.Success(publishResult{Entity: entity.ID(), Type: entity.Type(), Event: event.Name()})
}

// parseDetails decodes a single JSON object.
func parseDetails(raw string) (es.Details, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	var details es.Details
	if err := dec.Decode(&details); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	if details == nil {
		return nil, errors.New("details must be a JSON object")
	}
	return details, nil
}
