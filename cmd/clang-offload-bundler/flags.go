package main

import (
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

// commonFlags are shared across bundle, unbundle, and list: the files type
// and the bundle-alignment/compat knobs that change how a container is
// interpreted regardless of which direction data is flowing.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "type",
			Aliases:  []string{"t"},
			Usage:    "file type: i, ii, cui, hipi, d, ll, bc, s, o, a, gch, ast, f95",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "enable-classic-flang",
			Usage: "allow the f95 (classic flang) file type",
		},
		&cli.UintFlag{
			Name:  "bundle-align",
			Usage: "alignment, in bytes, between payloads in a binary container",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "hip-openmp-compatible",
			Usage: "treat hip and openmp offload kinds as mutually compatible",
		},
		&cli.BoolFlag{
			Name:  "allow-missing-bundles",
			Usage: "do not fail when a requested target has no compatible bundle",
		},
		&cli.BoolFlag{
			Name:  "print-external-commands",
			Usage: "print external tool invocations instead of running them",
		},
		&cli.StringFlag{
			Name:  "objcopy",
			Usage: "path to the external object-copy tool",
			Value: "objcopy",
		},
	}
}

// baseConfig builds the portion of bundle.Config that every subcommand
// populates identically from commonFlags(). Config.Diagnostics is stderr when
// --verbose or --print-external-commands is set, and discarded otherwise.
func baseConfig(cmd *cli.Command) *bundle.Config {
	cfg := &bundle.Config{
		FilesType:             cmd.String("type"),
		EnableClassicFlang:    cmd.Bool("enable-classic-flang"),
		BundleAlignment:       uint64(cmd.Uint("bundle-align")),
		HipOpenmpCompatible:   cmd.Bool("hip-openmp-compatible"),
		AllowMissingBundles:   cmd.Bool("allow-missing-bundles"),
		PrintExternalCommands: cmd.Bool("print-external-commands"),
		ObjcopyPath:           cmd.String("objcopy"),
	}
	if cmd.Bool("verbose") || cfg.PrintExternalCommands {
		cfg.Diagnostics = os.Stderr
	}
	return cfg
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
