package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/telomere/internal/harness"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario file on the logical clock and print the trace of
everything the engine emitted, one event per line:

  <ms>	<kind>	<value>

Exit codes:
  0 - scenario passed
  1 - scenario failed
  2 - scenario could not be loaded

Example:
  telomere run internal/harness/testdata/scenarios/euclid_playback.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(rootOpts, args[0], cmd)
		},
	}
}

func runScenarioFile(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	f.VerboseLog("running %s: %s", scenario.Name, scenario.Description)

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	text := []string{strings.TrimSuffix(harness.FormatTrace(result.Trace), "\n")}
	if len(result.Trace) == 0 {
		text = nil
	}
	if result.Pass {
		text = append(text, fmt.Sprintf("PASS %s", scenario.Name))
	} else {
		text = append(text, fmt.Sprintf("FAIL %s", scenario.Name))
		for _, e := range result.Errors {
			text = append(text, "  "+e)
		}
	}

	if err := f.Success(result, text...); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
