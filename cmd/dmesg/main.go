package main

import (
	"bytes"
	"context"
	"log"
	"os"

	"github.com/robalyx/dmesg/internal/kernel/transport"
	"github.com/robalyx/dmesg/internal/setup"
	"github.com/robalyx/dmesg/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "dmesg",
		Usage: "Print the kernel diagnostic message buffer",
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
			&cli.IntFlag{
				Name:  "size",
				Value: 0,
				Usage: "Size of the local buffer in bytes (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := setup.InitializeApp(telemetry.ServiceReader, c.String("config"), "", os.Stderr)
			if err != nil {
				return err
			}
			defer app.Cleanup()

			socket := app.Config.Kernel.Socket
			if s := c.String("socket"); s != "" {
				socket = s
			}

			size := app.Config.Reader.BufferSize
			if n := c.Int("size"); n > 0 {
				size = int(n)
			}

			data, err := transport.NewClient(socket, app.Logger).Dmesg(ctx, size)
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(printable(data))

			return err
		},
	}

	return app.Run(context.Background(), os.Args)
}

// printable returns the bytes before the terminator.
func printable(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}

	return data
}
