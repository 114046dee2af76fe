package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/internal/logger"
	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

func unbundleArchiveCmd() *cli.Command {
	return &cli.Command{
		Name:  "unbundle-archive",
		Usage: "Split a heterogeneous static library into one per-target archive",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"in"},
				Usage:    "source .a archive path",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "outputs",
				Aliases:  []string{"out"},
				Usage:    "comma-separated output .a paths, aligned with --targets",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "targets",
				Usage:    "comma-separated requested target ids, aligned with --outputs",
				Required: true,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg := baseConfig(cmd)
			cfg.TargetNames = splitList(cmd.String("targets"))
			cfg.OutputFileNames = splitList(cmd.String("outputs"))

			if len(cfg.OutputFileNames) != len(cfg.TargetNames) {
				return fmt.Errorf("unbundle-archive: --outputs and --targets must have the same number of entries")
			}

			inputPath := cmd.String("input")
			cfg.InputFileNames = []string{inputPath}

			input, closeInput, err := readInput(inputPath)
			if err != nil {
				return fmt.Errorf("unbundle-archive: reading %s: %w", inputPath, err)
			}
			defer closeInput()

			log.Debug("unbundling archive", "input", inputPath, "targets", len(cfg.TargetNames))

			op := bundle.NewBundleOp(cfg)
			archives, err := op.UnbundleArchive(inputPath, input)
			if err != nil {
				return fmt.Errorf("unbundle-archive: %w", err)
			}

			for i, data := range archives {
				if data == nil {
					continue // host-kind target: not extracted from archives
				}
				if err := writeOutput(cfg.OutputFileNames[i], data); err != nil {
					return fmt.Errorf("unbundle-archive: writing %s: %w", cfg.OutputFileNames[i], err)
				}
			}
			return nil
		},
	}
}
