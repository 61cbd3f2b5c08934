package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/services"
)

var (
	runHours   int
	runMinutes int
	runSeconds int
	runPreset  string
	runNoWait  bool
)

var runCmd = &cobra.Command{
	Use:   "run [DIGITS]",
	Short: "Run a countdown without the interactive screen",
	Long: `Run a countdown in the terminal with a progress bar.

DIGITS are typed into the seconds field the way the interactive timer takes
them, so "130" counts down 1m30s and "10000" counts down one hour. The time
can also be given with --hours/--minutes/--seconds or a named --preset.
Without any of them the countdown runs for the default minutes.

At zero the alarm sounds and a desktop notification is shown (when enabled
with "countdown prefs"). Press Ctrl+C to stop.`,
	Example: `  countdown run 130
  countdown run --minutes 25
  countdown run --preset tea`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHeadless,
}

func init() {
	runCmd.Flags().IntVar(&runHours, "hours", 0, "Hours to count down")
	runCmd.Flags().IntVar(&runMinutes, "minutes", 0, "Minutes to count down")
	runCmd.Flags().IntVar(&runSeconds, "seconds", 0, "Seconds to count down")
	runCmd.Flags().StringVarP(&runPreset, "preset", "p", "", "Preset name (fuzzy matched)")
	runCmd.Flags().BoolVar(&runNoWait, "no-wait", false, "Exit at zero instead of waiting for Ctrl+C")
	runCmd.MarkFlagsMutuallyExclusive("preset", "hours")
	runCmd.MarkFlagsMutuallyExclusive("preset", "minutes")
	runCmd.MarkFlagsMutuallyExclusive("preset", "seconds")
}

// runRequest is what the countdown should be filled with before it starts.
// The zero value keeps the current fields.
type runRequest struct {
	digits   string
	duration time.Duration
	// fill marks duration as given, so a zero duration still replaces the
	// fields.
	fill  bool
	label string
}

// runOptions are the parsed command-line inputs of run.
type runOptions struct {
	digits                  string
	hours, minutes, seconds int
	unitsSet                bool
	preset                  string
}

func parseRunRequest(opts runOptions, presets []config.Preset) (runRequest, error) {
	if opts.digits != "" {
		if opts.unitsSet || opts.preset != "" {
			return runRequest{}, errors.New("DIGITS cannot be combined with --hours/--minutes/--seconds or --preset")
		}
		if !domain.HasOnlyDigits(opts.digits) {
			return runRequest{}, fmt.Errorf("DIGITS must contain only digits, got %q", opts.digits)
		}
		return runRequest{digits: opts.digits}, nil
	}

	if opts.preset != "" {
		p, ok := config.FindPreset(presets, opts.preset)
		if !ok {
			return runRequest{}, fmt.Errorf("no preset matches %q", opts.preset)
		}
		return runRequest{duration: p.Duration, fill: true, label: p.Name}, nil
	}

	if opts.unitsSet {
		if opts.hours < 0 || opts.minutes < 0 || opts.seconds < 0 {
			return runRequest{}, errors.New("--hours, --minutes and --seconds must not be negative")
		}
		d := time.Duration(opts.hours)*time.Hour +
			time.Duration(opts.minutes)*time.Minute +
			time.Duration(opts.seconds)*time.Second
		if d > domain.MaxDuration {
			return runRequest{}, fmt.Errorf("%s: %w", d, domain.ErrDurationTooLong)
		}
		return runRequest{duration: d, fill: true}, nil
	}

	return runRequest{}, nil
}

// apply fills the editor. Digits go through the same typing path as the
// interactive fields.
func (r runRequest) apply(e *domain.DurationEditor) error {
	switch {
	case r.digits != "":
		e.Clear()
		e.Focus(domain.FieldSeconds)
		for _, ch := range r.digits {
			e.Type(ch)
		}
	case r.fill:
		return e.SetDuration(r.duration)
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	opts := runOptions{
		hours:   runHours,
		minutes: runMinutes,
		seconds: runSeconds,
		unitsSet: cmd.Flags().Changed("hours") ||
			cmd.Flags().Changed("minutes") ||
			cmd.Flags().Changed("seconds"),
		preset: runPreset,
	}
	if len(args) == 1 {
		opts.digits = args[0]
	}
	req, err := parseRunRequest(opts, app.config.Presets.GetPresets())
	if err != nil {
		return err
	}

	ctx, stop := setupSignalHandler()
	defer stop()

	out := cmd.OutOrStdout()
	display := newRunDisplay(ctx, out, isTerminal(out))
	runner, _ := newRunner(services.WithOnChange(display.update))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = runner.Run(runCtx) }()

	var started domain.CountdownStatus
	err = runner.Do(ctx, func(ctx context.Context, c *services.CountdownController) error {
		restoreHeadless(ctx, c)
		if err := req.apply(c.Editor()); err != nil {
			return err
		}
		if _, err := c.Start(ctx); err != nil {
			app.log.WithError(err).Warn("starting countdown")
		}
		started = c.Status()
		return nil
	})
	if err != nil {
		cancel()
		<-runner.Done()
		return fmt.Errorf("failed to start countdown: %w", err)
	}

	label := formatClock(started.Total)
	if req.label != "" {
		label = fmt.Sprintf("%s (%s)", req.label, label)
	}
	display.begin(label)

	select {
	case <-display.expired:
	case <-ctx.Done():
	}
	last := display.finish()

	if last.Phase == domain.PhaseExpired {
		fmt.Fprintln(out, app.config.Notifications.Body)
		if !runNoWait && last.SoundEnabled {
			fmt.Fprintln(out, "Press Ctrl+C to silence the alarm.")
			<-ctx.Done()
		}
	} else {
		fmt.Fprintf(out, "Stopped with %s left.\n", formatClock(last.Remaining))
	}

	cancel()
	<-runner.Done()
	return nil
}

// runDisplay renders runner status changes: an mpb bar on a terminal,
// plain lines otherwise. update is called on the runner goroutine.
type runDisplay struct {
	out      io.Writer
	progress *mpb.Progress

	mu      sync.Mutex
	bar     *mpb.Bar
	last    domain.CountdownStatus
	once    sync.Once
	expired chan struct{}
}

func newRunDisplay(ctx context.Context, out io.Writer, tty bool) *runDisplay {
	d := &runDisplay{out: out, expired: make(chan struct{})}
	if tty {
		d.progress = mpb.NewWithContext(ctx, mpb.WithOutput(out), mpb.WithWidth(48))
	}
	return d
}

func (d *runDisplay) update(st domain.CountdownStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = st
	if d.bar != nil && st.Total > 0 {
		d.bar.SetCurrent(int64((st.Total - st.Remaining) / time.Second))
	}
	if st.Phase == domain.PhaseExpired {
		d.once.Do(func() { close(d.expired) })
	}
}

// begin prints the start line and adds the bar for the running countdown.
func (d *runDisplay) begin(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.progress == nil || d.last.Total <= 0 || d.last.Phase != domain.PhaseTicking {
		fmt.Fprintf(d.out, "Counting down %s\n", label)
		return
	}

	total := int64(d.last.Total / time.Second)
	name := "Countdown"
	d.bar = d.progress.New(total,
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.Any(func(s decor.Statistics) string {
					return formatClock(time.Duration(s.Total-s.Current) * time.Second)
				}, decor.WC{W: 8}),
				"Done",
			),
		),
	)
	d.bar.SetCurrent(int64((d.last.Total - d.last.Remaining) / time.Second))
}

// finish settles the bar and returns the last status seen.
func (d *runDisplay) finish() domain.CountdownStatus {
	d.mu.Lock()
	bar, last := d.bar, d.last
	d.mu.Unlock()

	if d.progress != nil {
		if bar != nil && !bar.Completed() {
			bar.Abort(false)
		}
		d.progress.Wait()
	}
	return last
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
