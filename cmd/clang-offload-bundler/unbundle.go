package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/internal/logger"
	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

func unbundleCmd() *cli.Command {
	return &cli.Command{
		Name:  "unbundle",
		Usage: "Split an offload bundle back into its per-target inputs",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"in"},
				Usage:    "bundle path",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "outputs",
				Aliases:  []string{"out"},
				Usage:    "comma-separated output paths, aligned with --targets",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "targets",
				Usage:    "comma-separated requested target ids, aligned with --outputs",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "host-input-index",
				Usage: "index into the original bundle's inputs that named the host input (-1 for unset)",
				Value: -1,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg := baseConfig(cmd)
			cfg.TargetNames = splitList(cmd.String("targets"))
			cfg.OutputFileNames = splitList(cmd.String("outputs"))
			cfg.HostInputIndex = bundle.NoHostIndex
			if idx := cmd.Int("host-input-index"); idx >= 0 {
				cfg.HostInputIndex = uint(idx)
			}

			if len(cfg.OutputFileNames) != len(cfg.TargetNames) {
				return fmt.Errorf("unbundle: --outputs and --targets must have the same number of entries")
			}

			inputPath := cmd.String("input")
			cfg.InputFileNames = []string{inputPath}

			input, closeInput, err := readInput(inputPath)
			if err != nil {
				return fmt.Errorf("unbundle: reading %s: %w", inputPath, err)
			}
			defer closeInput()

			log.Debug("unbundling", "input", inputPath, "targets", len(cfg.TargetNames))

			op := bundle.NewBundleOp(cfg)
			err = op.Unbundle(input, func(idx int, payload []byte) error {
				return writeOutput(cfg.OutputFileNames[idx], payload)
			})
			if err != nil {
				return fmt.Errorf("unbundle: %w", err)
			}
			return nil
		},
	}
}
