package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phobologic/gitref/internal/build"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/report"
	"github.com/phobologic/gitref/internal/toon"
)

func newCheckCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [docs-dir]",
		Short: "Fail when referenced code changed since the last update",
		Long: `Resolve every reference in the documentation under docs-dir (default: the
current directory) and compare it with the recorded hash file. The command
fails when a reference cannot be resolved, when referenced code changed, or
when the hash file is missing references.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, g, docsDir(args), model.ModeCheck)
		},
	}
}

func newUpdateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update [docs-dir]",
		Short: "Record the current state of every referenced file and definition",
		Long: `Resolve every reference in the documentation under docs-dir (default: the
current directory) and rewrite the hash file from scratch. References that
cannot be resolved are reported and left out of the hash file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, g, docsDir(args), model.ModeUpdate)
		},
	}
}

func runPass(cmd *cobra.Command, g *globalOptions, dir string, mode model.Mode) error {
	cfg, logger, err := g.setup(dir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	res, err := build.Run(cmd.Context(), build.Options{Config: cfg, Mode: mode, Logger: logger})
	if res != nil {
		if werr := writeResult(cmd.OutOrStdout(), res, g); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	return res.Report.Err()
}

type jsonLink struct {
	Document string `json:"document"`
	Line     int    `json:"line"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type jsonResult struct {
	PassID string `json:"pass_id"`
	*report.Report
	Links []jsonLink `json:"links,omitempty"`
}

func writeResult(w io.Writer, res *build.Result, g *globalOptions) error {
	var links []model.Link
	if g.links {
		links = res.Links()
	}

	switch g.format {
	case formatTOON:
		_, err := fmt.Fprintln(w, toon.Encode(res.Report, links))
		return err

	case formatJSON:
		out := jsonResult{PassID: res.PassID, Report: res.Report}
		for _, l := range links {
			jl := jsonLink{Document: l.Document, Line: l.Line, Target: l.Target, Label: l.Label, URL: l.URL}
			if l.Err != nil {
				jl.Error = l.Err.Error()
			}
			out.Links = append(out.Links, jl)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)

	default:
		if _, err := fmt.Fprint(w, res.Report.Summary()); err != nil {
			return err
		}
		for _, l := range links {
			dest := l.URL
			if l.Err != nil {
				dest = "error: " + l.Err.Error()
			}
			if _, err := fmt.Fprintf(w, "%s:%d: %s -> %s\n", l.Document, l.Line, l.Target, dest); err != nil {
				return err
			}
		}
		return nil
	}
}
