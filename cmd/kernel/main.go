package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/dmesg/internal/kernel"
	"github.com/robalyx/dmesg/internal/kernel/transport"
	"github.com/robalyx/dmesg/internal/setup"
	"github.com/robalyx/dmesg/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// KernelLogDir specifies where kernel log files are stored.
const KernelLogDir = "logs/kernel_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "kernel",
		Usage: "Boot the simulated kernel and serve the dmesg syscalls",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to dmesg.toml",
			},
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "Unix socket to serve syscalls on (overrides config)",
			},
			&cli.IntFlag{
				Name:  "harts",
				Value: -1,
				Usage: "Number of harts producing events (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Value: KernelLogDir,
				Usage: "Directory for session log files",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runKernel(ctx, c)
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runKernel boots the kernel and serves until interrupted.
func runKernel(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(telemetry.ServiceKernel, c.String("config"), c.String("log-dir"), os.Stderr)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	cfg := app.Config

	socket := cfg.Kernel.Socket
	if s := c.String("socket"); s != "" {
		socket = s
	}

	harts := cfg.Kernel.Harts
	if h := c.Int("harts"); h >= 0 {
		harts = int(h)
	}

	k, err := kernel.New(kernel.Config{
		BufferSize:    cfg.Buffer.Size(),
		TickInterval:  time.Duration(cfg.Clock.TickIntervalMS) * time.Millisecond,
		EventInterval: time.Duration(cfg.Kernel.EventIntervalMS) * time.Millisecond,
		Harts:         harts,
	}, app.LogManager.GetInstanceID(), app.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := transport.NewServer(k, app.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return k.Run(ctx)
	})
	g.Go(func() error {
		return server.Serve(ctx, socket)
	})

	app.Logger.Info("Kernel running", zap.String("socket", socket))

	if err := g.Wait(); err != nil {
		app.Logger.Error("Kernel exited with error", zap.Error(err))
		return err
	}

	_ = os.Remove(socket)

	return nil
}
