// cmd/clang-offload-bundler/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "clang-offload-bundler",
		Usage: "Bundle and unbundle per-target offload code objects",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging, including CodeObjectCompatibility decisions",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text|json",
				Value: "text",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := logger.ParseLevel("info")
			if cmd.Bool("verbose") {
				level = logger.ParseLevel("debug")
			}

			var log logger.Logger
			if cmd.String("log-format") == "json" {
				log = logger.JSON(os.Stderr, level)
			} else {
				log = logger.Pretty(os.Stderr, level)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			bundleCmd(),
			unbundleCmd(),
			unbundleArchiveCmd(),
			listCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
