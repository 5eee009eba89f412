package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DB        string
	SessionID string
	Kinds     []string
	Sessions  bool // list sessions instead of events
}

// TraceResult is the JSON output of the trace command.
type TraceResult struct {
	Session journal.Session `json:"session"`
	Events  []journal.Event `json:"events"`
}

var validKinds = []engine.OutletKind{
	engine.KindPosition,
	engine.KindBang,
	engine.KindCount,
	engine.KindStatus,
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a journaled session",
		Long: `Print the events a play session journaled, in emission order. Without
--session the most recent session is shown.

Examples:
  telomere trace --db telomere.db
  telomere trace --db telomere.db --sessions
  telomere trace --db telomere.db --session 0190... --kind bang --kind count
  telomere trace --db telomere.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "journal database path (required)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session id (default: latest)")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only these kinds (position|bang|count|status)")
	cmd.Flags().BoolVar(&opts.Sessions, "sessions", false, "list sessions")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	kinds := make([]engine.OutletKind, 0, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kind := engine.OutletKind(k)
		if !slices.Contains(validKinds, kind) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be one of %v", k, validKinds))
		}
		kinds = append(kinds, kind)
	}

	// Open would create an empty journal; a missing file is a usage error.
	if _, err := os.Stat(opts.DB); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	store, err := journal.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if opts.Sessions {
		sessions, err := store.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read sessions", err)
		}
		lines := make([]string, 0, len(sessions))
		for _, s := range sessions {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%.1f bpm\t%d beats\t%s",
				s.ID, s.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"), s.Tempo, s.Beats, s.Label))
		}
		if len(lines) == 0 {
			lines = []string{"No sessions."}
		}
		return f.Success(sessions, lines...)
	}

	var session journal.Session
	if opts.SessionID != "" {
		session, err = store.Session(ctx, opts.SessionID)
	} else {
		session, err = store.Latest(ctx)
	}
	if errors.Is(err, journal.ErrNoSession) {
		if f.JSON() {
			_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	events, err := store.ReadEvents(ctx, session.ID, kinds...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	f.VerboseLog("session %s: %d events", session.ID, len(events))

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		if v := ev.FormatValue(); v != "" {
			lines = append(lines, fmt.Sprintf("%.3f\t%s\t%s", ev.AtMs, ev.Kind, v))
		} else {
			lines = append(lines, fmt.Sprintf("%.3f\t%s", ev.AtMs, ev.Kind))
		}
	}
	if len(lines) == 0 {
		lines = []string{"No events."}
	}
	return f.Success(TraceResult{Session: session, Events: events}, lines...)
}
