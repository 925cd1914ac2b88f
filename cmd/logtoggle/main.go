package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/robalyx/dmesg/internal/control"
	"github.com/robalyx/dmesg/internal/dmesg"
	"github.com/robalyx/dmesg/internal/kernel/transport"
	"github.com/robalyx/dmesg/internal/setup"
	"github.com/robalyx/dmesg/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const usage = `logtoggle - toggles dmesg logging for a given event class.

Usage:
	$ logtoggle EVENTCLASS ACTION

Positional arguments:
	EVENTCLASS - a number or a string representing the event class to toggle.
		Possible values:
		- '0' or 'interrupt' - hardware interrupts
		- '1' or 'procswitch' - process switches
		- '2' or 'syscall' - system calls
		- 'all' - all above

	ACTION - what to do with the given event class.
		Possible values:
		- 'disable' - disable logging
		- 'enable' - enable logging permanently
		- 'enable x', where x is a positive number - enable logging for x ticks.
`

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:      "logtoggle",
		Usage:     "Toggle dmesg logging for an event class",
		ArgsUsage: "EVENTCLASS ACTION [TICKS]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to dmesg.toml",
			},
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "Kernel syscall socket (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			target, duration, err := parseArgs(c.Args().Slice())
			if err != nil {
				fmt.Fprint(os.Stderr, usage)
				return err
			}

			app, err := setup.InitializeApp(telemetry.ServiceToggle, c.String("config"), "", os.Stderr)
			if err != nil {
				return err
			}
			defer app.Cleanup()

			socket := app.Config.Kernel.Socket
			if s := c.String("socket"); s != "" {
				socket = s
			}

			toggler := &remoteToggler{
				ctx:    ctx,
				client: transport.NewClient(socket, app.Logger),
				out:    os.Stdout,
			}
			control.Apply(toggler, target, duration)

			if toggler.err != nil {
				app.Logger.Debug("Toggle failed", zap.Stringer("target", target), zap.Error(toggler.err))
			}

			return toggler.err
		},
	}

	return app.Run(context.Background(), os.Args)
}

// parseArgs maps EVENTCLASS ACTION [TICKS] onto a target and a duration.
func parseArgs(args []string) (control.Target, int, error) {
	if len(args) < 2 {
		return control.Target{}, 0, fmt.Errorf("%w: expected EVENTCLASS and ACTION", control.ErrInvalidAction)
	}

	target, err := control.ParseTarget(args[0])
	if err != nil {
		return control.Target{}, 0, err
	}

	duration, err := control.ParseAction(args[1:])
	if err != nil {
		return control.Target{}, 0, err
	}

	return target, duration, nil
}

// remoteToggler issues toggles over the syscall socket, stopping at the
// first failure.
type remoteToggler struct {
	ctx    context.Context
	client *transport.Client
	out    io.Writer
	err    error
}

func (r *remoteToggler) Toggle(class dmesg.EventClass, duration int) {
	if r.err != nil {
		return
	}

	if err := r.client.Toggle(r.ctx, int(class), duration); err != nil {
		r.err = fmt.Errorf("failed to toggle %s: %w", class, err)
		return
	}

	fmt.Fprintf(r.out, "%s: %s\n", class, describe(duration))
}

// describe renders a duration the way the toggle was requested.
func describe(duration int) string {
	switch {
	case duration == 0:
		return "enabled"
	case duration < 0:
		return "disabled"
	default:
		return fmt.Sprintf("enabled for %d ticks", duration)
	}
}
