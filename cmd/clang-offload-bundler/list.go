package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print every target id stored in a bundle",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"in"},
				Usage:    "bundle path",
				Required: true,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := baseConfig(cmd)
			inputPath := cmd.String("input")
			cfg.InputFileNames = []string{inputPath}

			input, closeInput, err := readInput(inputPath)
			if err != nil {
				return fmt.Errorf("list: reading %s: %w", inputPath, err)
			}
			defer closeInput()

			op := bundle.NewBundleOp(cfg)
			ids, err := op.List(input)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}
