package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/internal/logger"
	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

func bundleCmd() *cli.Command {
	return &cli.Command{
		Name:  "bundle",
		Usage: "Pack per-target inputs into a single offload bundle",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "inputs",
				Aliases:  []string{"in"},
				Usage:    "comma-separated input paths, aligned with --targets",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"out"},
				Usage:    "output bundle path",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "targets",
				Usage:    "comma-separated target ids, aligned with --inputs",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "host-input-index",
				Usage: "index into --inputs naming the host input (-1 for none)",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "allow-no-host",
				Usage: "allow bundling without a designated host input",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg := baseConfig(cmd)
			cfg.InputFileNames = splitList(cmd.String("inputs"))
			cfg.TargetNames = splitList(cmd.String("targets"))
			cfg.OutputFileNames = []string{cmd.String("output")}
			cfg.AllowNoHost = cmd.Bool("allow-no-host")
			cfg.HostInputIndex = bundle.NoHostIndex
			if idx := cmd.Int("host-input-index"); idx >= 0 {
				cfg.HostInputIndex = uint(idx)
			}

			if len(cfg.InputFileNames) != len(cfg.TargetNames) {
				return fmt.Errorf("bundle: --inputs and --targets must have the same number of entries")
			}

			inputs := make([][]byte, len(cfg.InputFileNames))
			for i, path := range cfg.InputFileNames {
				data, closeInput, err := readInput(path)
				if err != nil {
					return fmt.Errorf("bundle: reading %s: %w", path, err)
				}
				defer closeInput()
				inputs[i] = data
			}

			log.Debug("bundling inputs", "count", len(inputs), "type", cfg.FilesType)

			op := bundle.NewBundleOp(cfg)
			out, err := op.Bundle(inputs)
			if err != nil {
				return fmt.Errorf("bundle: %w", err)
			}
			if (cfg.FilesType == "o" || cfg.FilesType == "a") && len(out) == 0 {
				// ObjectHandler wrote Config.OutputFileNames[0] directly via
				// the external object-copy tool. A non-object reference input
				// selects the binary container instead, written below.
				return nil
			}
			if err := writeOutput(cfg.OutputFileNames[0], out); err != nil {
				return fmt.Errorf("bundle: writing %s: %w", cfg.OutputFileNames[0], err)
			}
			return nil
		},
	}
}
