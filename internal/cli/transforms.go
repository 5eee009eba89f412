package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/sched"
)

// NewTransformsCommand creates the transforms command.
func NewTransformsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List transforms and built-in messages",
		Long: `List every message the engine accepts: registered transforms first,
most recent registration first, then the built-in messages.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := sched.NewManual(time.Time{})
			e := engine.New(m.Clock(), m, engine.WithLogger(rootOpts.newLogger(io.Discard)))
			entries := e.Help()

			lines := make([]string, 0, len(entries)+1)
			builtinHeader := false
			for _, h := range entries {
				if h.Builtin && !builtinHeader {
					lines = append(lines, "", "messages:")
					builtinHeader = true
				}
				lines = append(lines, fmt.Sprintf("%-16s args: %-14s %s", h.Name, h.Args, h.Description))
			}
			return rootOpts.formatter(cmd).Success(entries, lines...)
		},
	}
}
