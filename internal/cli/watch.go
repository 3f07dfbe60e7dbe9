package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const defaultDebounce = 200 * time.Millisecond

// watchCommand creates the watch command, which rebuilds the graph whenever
// the netlist changes.
func (c *CLI) watchCommand() *cobra.Command {
	var opts buildOpts
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <netlist>",
		Short: "Rebuild the connectivity graph whenever the netlist changes",
		Long: `Watch builds the graph once, then again after every change to the netlist
file. Bursts of changes (editors often write a file several times) are
collapsed into one rebuild. Build errors are reported without stopping the
watch; press Ctrl+C to exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			popts := opts.options(cmd, c.config.Build, args[0])
			popts.Formats = parseFormats(opts.formats)
			popts.Output = opts.output

			rebuild := func() {
				if err := c.runBuild(ctx, popts, opts.noCache); err != nil {
					printError("%s", ErrorMessage(err))
				}
			}
			if err := checkInput(popts.Input); err != nil {
				return err
			}
			rebuild()
			printInfo("Watching %s", StyleValue.Render(popts.Input))

			err := watchFile(ctx, popts.Input, debounce, rebuild)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): gt, graphml, json, dot, svg, png, pdf")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before rebuilding")
	opts.register(cmd)

	return cmd
}

// watchFile calls fn once per burst of changes to path until ctx is done.
// The parent directory is watched so that editors replacing the file by
// rename are still seen.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			fn()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			loggerFromContext(ctx).Warn("watch error", "error", err)
		}
	}
}
