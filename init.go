package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/gitref/internal/config"
)

func newInitCmd() *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [docs-dir]",
		Short: "Write a starter " + config.Filename,
		Long: `Write a commented ` + config.Filename + ` to docs-dir (default: the current
directory). Every setting is optional; the file documents the defaults.
An existing file is only replaced with --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(docsDir(args), dryRun, force, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing "+config.Filename)
	return cmd
}

// runInit writes the starter configuration to dir.
func runInit(dir string, dryRun, force bool, stdout, stderr io.Writer) error {
	if dryRun {
		_, _ = fmt.Fprint(stdout, config.Starter)
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("docs directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}

	path := filepath.Join(dir, config.Filename)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists - use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(path, []byte(config.Starter), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
	return nil
}
