package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/telomere/internal/euclid"
)

// EuclidResult is the output of the euclid command.
type EuclidResult struct {
	Hits      int       `json:"hits"`
	Steps     int       `json:"steps"`
	Rhythm    string    `json:"rhythm"`
	Positions []float32 `json:"positions"`
}

// NewEuclidCommand creates the euclid command.
func NewEuclidCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "euclid <hits> <steps>",
		Short: "Print a Euclidean rhythm",
		Long: `Print the rhythm that "euclid <hits> <steps>" would load, as a step
string and as cycle positions. Arguments are clamped the same way.

Examples:
  telomere euclid 3 8
  telomere euclid 5 16 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := strconv.Atoi(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "hits must be an integer", err)
			}
			steps, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "steps must be an integer", err)
			}

			hits, steps = euclid.Clamp(hits, steps)
			result := EuclidResult{
				Hits:      hits,
				Steps:     steps,
				Rhythm:    euclid.String(euclid.Rhythm(hits, steps)),
				Positions: euclid.Positions(hits, steps),
			}

			lines := []string{result.Rhythm}
			for _, p := range result.Positions {
				lines = append(lines, fmt.Sprintf("%.6f", p))
			}
			return rootOpts.formatter(cmd).Success(result, lines...)
		},
	}
}
