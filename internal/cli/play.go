package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/journal"
	"github.com/roach88/telomere/internal/midiout"
	"github.com/roach88/telomere/internal/sched"
)

// playPollInterval is how often play checks whether the last cycle ended
// after input is exhausted.
const playPollInterval = 10 * time.Millisecond

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Tempo    float64
	Seed     uint64
	DB       string
	Label    string
	MIDIOut  string
	MIDIPort string
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Drive an engine from message lines on stdin",
		Long: `Read message lines from stdin and send them to a live engine on the
wall clock. Every outlet emission is printed as it happens:

  <ms>	<kind>	<value>

Blank lines and lines starting with '#' are ignored; "quit" ends input.
When input ends, play waits for the current cycle to finish.

Examples:
  printf '120\neuclid 3 8\nbang\n' | telomere play
  telomere play --db telomere.db --label take1
  telomere play --midi-out - --config session.yaml
  telomere play --midi-port "IAC Driver Bus 1"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Tempo, "tempo", 0, "tempo in BPM (overrides config)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (overrides config)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "journal database path (overrides config)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "journal session label")
	cmd.Flags().StringVar(&opts.MIDIOut, "midi-out", "", `write MIDI to a file, or "-" for text on stdout`)
	cmd.Flags().StringVar(&opts.MIDIPort, "midi-port", "", "send MIDI to the named output port")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	stdout := &lockedWriter{w: cmd.OutOrStdout()}
	stderr := &lockedWriter{w: cmd.ErrOrStderr()}
	logger := opts.newLogger(stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.RealClock{}
	tee := engine.Tee{newPrintOutlet(stdout, clk, opts.Format == "json")}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	engineOpts = append(engineOpts, cfg.Options()...)
	if opts.Tempo > 0 {
		engineOpts = append(engineOpts, engine.WithTempo(float32(opts.Tempo)))
	}
	if cmd.Flags().Changed("seed") {
		engineOpts = append(engineOpts, engine.WithSeed(opts.Seed))
	}
	engineOpts = append(engineOpts, engine.WithOutlet(&tee))

	r := engine.NewRunner(clk, engineOpts...)

	send, closeSend, err := opts.midiSender(stdout)
	if err != nil {
		return err
	}
	defer closeSend()
	if send != nil {
		midiOpts := append(cfg.MIDIOptions(), midiout.WithLogger(logger))
		tee = append(tee, midiout.New(send, sched.NewTimerScheduler(clk, nil), midiOpts...))
	}

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = cfg.Journal
	}
	var writer *journal.Writer
	if dbPath != "" {
		store, err := journal.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer store.Close()

		// Run has not started, so reading the engine here is safe.
		e := r.Engine()
		session, err := store.StartSession(ctx, journal.Session{
			StartedAt: clk.Now(),
			Label:     opts.Label,
			Tempo:     e.Tempo(),
			Beats:     e.Beats(),
			Grid:      e.Grid(),
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal session", err)
		}
		writer = journal.NewWriter(ctx, store, session, clk, logger)
		tee = append(tee, writer)
		logger.Info("journal session started", "session", session.ID, "path", dbPath)
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx)
	}()

	feedErr := feedLines(ctx, r, cmd.InOrStdin(), logger)
	if feedErr == nil {
		waitIdle(ctx, r)
	}
	r.Stop()

	err = <-runErr
	if writer != nil {
		logger.Info("journal session closed",
			"session", writer.Session().ID,
			"events", writer.Written(),
			"failed", writer.Failed(),
		)
	}

	switch {
	case feedErr != nil:
		return WrapExitError(ExitCommandError, "failed to read input", feedErr)
	case err != nil && ctx.Err() == nil:
		return WrapExitError(ExitFailure, "engine stopped", err)
	}
	return nil
}

// midiSender picks the MIDI destination from --midi-port or --midi-out.
// It returns a nil Sender when neither is set.
func (o *PlayOptions) midiSender(stdout io.Writer) (midiout.Sender, func(), error) {
	noop := func() {}
	switch {
	case o.MIDIPort != "" && o.MIDIOut != "":
		return nil, noop, NewExitError(ExitCommandError, "--midi-port and --midi-out are mutually exclusive")
	case o.MIDIPort != "":
		send, err := midiout.PortSender(o.MIDIPort)
		if err != nil {
			return nil, noop, WrapExitError(ExitCommandError, "failed to open MIDI port", err)
		}
		return send, noop, nil
	case o.MIDIOut == "-":
		return midiout.TextSender(stdout), noop, nil
	case o.MIDIOut != "":
		f, err := os.Create(o.MIDIOut)
		if err != nil {
			return nil, noop, WrapExitError(ExitCommandError, "failed to create MIDI output", err)
		}
		return midiout.WriterSender(&lockedWriter{w: f}), func() { f.Close() }, nil
	}
	return nil, noop, nil
}

// feedLines sends each input line to the runner until EOF, "quit" or
// cancellation. Reading happens on its own goroutine so an interrupt is
// noticed while stdin blocks.
func feedLines(ctx context.Context, r *engine.Runner, in io.Reader, logger *slog.Logger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if line == "quit" || line == "exit" {
				return nil
			}

			msg, err := atom.ParseMessage(line)
			if err != nil {
				logger.Warn("unparseable line", "line", line, "error", err)
				continue
			}
			if err := r.Send(msg); err != nil {
				return nil
			}
		}
	}
}

// waitIdle blocks until the engine is no longer playing.
func waitIdle(ctx context.Context, r *engine.Runner) {
	ticker := time.NewTicker(playPollInterval)
	defer ticker.Stop()

	for {
		playing := make(chan bool, 1)
		if err := r.Do(func(e *engine.Engine) { playing <- e.State() == engine.StatePlaying }); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case p := <-playing:
			if !p {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// printOutlet writes each emission as a trace line, or as a JSON object
// per line in JSON mode.
type printOutlet struct {
	w     io.Writer
	clock clock.PassiveClock
	start time.Time
	json  bool
}

func newPrintOutlet(w io.Writer, clk clock.PassiveClock, asJSON bool) *printOutlet {
	return &printOutlet{w: w, clock: clk, start: clk.Now(), json: asJSON}
}

func (p *printOutlet) Position(pos float32) { p.print(engine.KindPosition, float64(pos)) }
func (p *printOutlet) Bang()                { p.print(engine.KindBang, 0) }
func (p *printOutlet) Count(n int)          { p.print(engine.KindCount, float64(n)) }

func (p *printOutlet) Status(recording bool) {
	v := 0.0
	if recording {
		v = 1
	}
	p.print(engine.KindStatus, v)
}

func (p *printOutlet) print(kind engine.OutletKind, value float64) {
	ev := engine.OutletEvent{Kind: kind, Value: value}
	at := sched.ToMillis(p.clock.Since(p.start))

	if p.json {
		_ = json.NewEncoder(p.w).Encode(struct {
			AtMs  float64           `json:"at_ms"`
			Kind  engine.OutletKind `json:"kind"`
			Value float64           `json:"value"`
		}{at, kind, value})
		return
	}
	if v := ev.FormatValue(); v != "" {
		fmt.Fprintf(p.w, "%.3f\t%s\t%s\n", at, kind, v)
		return
	}
	fmt.Fprintf(p.w, "%.3f\t%s\n", at, kind)
}

// lockedWriter serialises writes from the loop, timer and input goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
