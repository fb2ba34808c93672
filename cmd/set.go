package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"brightctl/internal/display"
)

// fadeStep is the interval between intermediate values of a fade. Values
// arriving faster than the cooldown are coalesced.
const fadeStep = 25 * time.Millisecond

var (
	setFade    time.Duration
	setConfirm time.Duration
)

var setCmd = &cobra.Command{
	Use:   "set <display|all> <value>",
	Short: "Sets the brightness of a display",
	Long: `Sets brightness to an absolute value (0-100, optionally with %) or by a
relative step (+10, -10). With --confirm the change is reverted unless it is
confirmed before the timeout.`,
	Example: `  brightctl set 3 70
  brightctl set DP-4 +10
  brightctl set all -- -20
  brightctl set "VG270U" 40 --fade 1s --confirm 15s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		displays, err := current.discover(cmd.Context())
		if err != nil {
			return err
		}
		targets, err := selectDisplays(displays, args[0])
		if err != nil {
			return err
		}

		session, err := applyLevel(cmd.Context(), cmd.OutOrStdout(), current.ctrl, current.prefer,
			current.cfg.Cooldown(), targets, lvl, setFade)
		if err != nil {
			return err
		}
		if setConfirm <= 0 || !session.HasChanges() {
			return nil
		}
		return confirmOrRevert(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), targets, session)
	},
}

// applyLevel writes lvl to every target through a Service so that fade
// steps are coalesced per display, and returns the session holding the
// originals. Displays fade concurrently.
func applyLevel(ctx context.Context, out io.Writer, ctrl *display.Controller, pref display.Method,
	cooldown time.Duration, targets []*display.Info, lvl level, fade time.Duration,
) (*display.Session, error) {
	svc := display.NewService(nil, ctrl, pref, cooldown)
	list := make([]display.Info, 0, len(targets))
	for _, d := range targets {
		list = append(list, *d)
	}
	svc.Use(list)

	svc.ReadAll(ctx)
	samples := make(map[string]display.Sample, len(targets))
	for ev := range svc.Events() {
		if ev.Kind == display.EventSamples {
			for _, smp := range ev.Samples {
				samples[smp.Key] = smp
			}
			break
		}
	}

	var writeErrs []error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range svc.Events() {
			if ev.Kind == display.EventSet && ev.Err != nil {
				writeErrs = append(writeErrs, ev.Err)
			}
		}
	}()

	var errs []error
	var g errgroup.Group
	steps := max(int(fade/fadeStep), 1)
	for _, d := range targets {
		key := d.Key()
		smp := samples[key]
		cur, ok := svc.Session().Original(key)
		switch {
		case ok:
			fmt.Fprintf(out, "%s: %d -> %d (%s)\n", d.Name(), cur, lvl.apply(cur), smp.Method)
			g.Go(func() error {
				return ramp(ctx, svc, key, cur, lvl.apply(cur), steps)
			})
		case lvl.relative:
			errs = append(errs, fmt.Errorf("%s: relative change needs the current value: %w", key, smp.Err))
		default:
			log.Debug().Err(smp.Err).Str("display", key).Msg("reading brightness")
			fmt.Fprintf(out, "%s: -> %d\n", d.Name(), lvl.value)
			g.Go(func() error {
				return svc.SetBrightness(key, lvl.value)
			})
		}
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	svc.Close()
	<-done
	return svc.Session(), errors.Join(append(errs, writeErrs...)...)
}

// ramp submits steps evenly spaced values from from to to, ending on to.
func ramp(ctx context.Context, svc *display.Service, key string, from, to, steps int) error {
	ticker := time.NewTicker(fadeStep)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		if err := svc.SetBrightness(key, from+(to-from)*i/steps); err != nil {
			return err
		}
		if i == steps {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("fade %s: %w", key, ctx.Err())
		}
	}
	return nil
}

// confirmOrRevert asks for confirmation and restores the originals when the
// answer is not yes or the timeout expires.
func confirmOrRevert(ctx context.Context, in io.Reader, out io.Writer, targets []*display.Info, session *display.Session) error {
	fmt.Fprintf(out, "Keep the new brightness? [y/N] (reverting in %s) ", setConfirm)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	keep := false
	select {
	case a := <-answer:
		keep = a == "y" || a == "yes"
	case <-time.After(setConfirm):
		fmt.Fprintln(out)
	case <-ctx.Done():
		fmt.Fprintln(out)
	}

	if keep {
		session.Confirm()
		return nil
	}

	byKey := make(map[string]*display.Info, len(targets))
	for _, d := range targets {
		byKey[d.Key()] = d
	}
	var errs []error
	for key, v := range session.Revert() {
		// A cancelled ctx must not stop the restore.
		if _, err := current.ctrl.SetBrightness(context.WithoutCancel(ctx), byKey[key], v, current.prefer); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "%s: reverted to %d\n", byKey[key].Name(), v)
	}
	return errors.Join(errs...)
}

func init() {
	setCmd.Flags().DurationVar(&setFade, "fade", 0, "ramp to the new value over this duration")
	setCmd.Flags().DurationVar(&setConfirm, "confirm", 0, "revert unless confirmed within this duration")
	setCmd.SetIn(os.Stdin)
	rootCmd.AddCommand(setCmd)
}
