package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"brightctl/internal/display"
)

// watchSettle delays rediscovery after a burst of device-node events.
const watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reports displays as they come and go",
	Long: `Watches the I2C device directory and runs discovery again whenever an
i2c-N node appears or disappears, printing the displays added or removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		devDir := current.cfg.Values().Discovery.DevDir

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(devDir); err != nil {
			return fmt.Errorf("watch %s: %w", devDir, err)
		}

		svc := display.NewService(current.registry, current.ctrl, current.prefer, current.cfg.Cooldown())
		defer func() {
			go svc.Close()
			for range svc.Events() {
			}
		}()

		svc.Refresh(ctx)
		fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", devDir)

		var known []display.Info
		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if isBusEvent(ev) {
					log.Debug().Str("event", ev.String()).Msg("i2c device change")
					settle = time.After(watchSettle)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Error().Err(err).Msg("error in watcher")
			case <-settle:
				settle = nil
				svc.Refresh(ctx)
			case ev := <-svc.Events():
				if ev.Kind != display.EventDiscovered {
					continue
				}
				if ev.Err != nil {
					log.Warn().Err(ev.Err).Msg("discovery interrupted")
				}
				printChanges(out, known, ev.Displays)
				known = ev.Displays
			}
		}
	},
}

// isBusEvent reports whether ev adds or removes an i2c-N node.
func isBusEvent(ev fsnotify.Event) bool {
	if !strings.HasPrefix(filepath.Base(ev.Name), "i2c-") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove)
}

func printChanges(w io.Writer, prev, next []display.Info) {
	added, removed := diffDisplays(prev, next)
	for _, d := range removed {
		fmt.Fprintf(w, "- %s [%s]\n", d.Name(), d.Key())
	}
	for _, d := range added {
		fmt.Fprintf(w, "+ %s [%s] control=%s\n", d.Name(), d.Key(), d.Preferred)
	}
}

// diffDisplays compares two passes by key and identity.
func diffDisplays(prev, next []display.Info) (added, removed []display.Info) {
	id := func(d display.Info) string {
		return d.Key() + "|" + d.Name()
	}
	prevIDs := make([]string, 0, len(prev))
	for _, d := range prev {
		prevIDs = append(prevIDs, id(d))
	}
	nextIDs := make([]string, 0, len(next))
	for _, d := range next {
		nextIDs = append(nextIDs, id(d))
	}
	for _, d := range next {
		if !slices.Contains(prevIDs, id(d)) {
			added = append(added, d)
		}
	}
	for _, d := range prev {
		if !slices.Contains(nextIDs, id(d)) {
			removed = append(removed, d)
		}
	}
	return added, removed
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
