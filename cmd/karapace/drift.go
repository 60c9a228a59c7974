package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// DriftCmd groups the three overlay-drift operations spec.md's drift
// mechanism exposes: inspecting, exporting, and committing what a running
// environment has written to its writable layer.
type DriftCmd struct {
	Diff   DriftDiffCmd   `cmd:"" help:"Show an environment's overlay drift"`
	Export DriftExportCmd `cmd:"" help:"Stream an environment's overlay drift as a gzip tarball"`
	Commit DriftCommitCmd `cmd:"" help:"Pack an environment's overlay drift into a new layer"`
}

// DriftDiffCmd prints the classified changes under an environment's
// writable layer.
type DriftDiffCmd struct {
	rootFlags
	Ref  string `arg:"" help:"Environment ID, short ID, or name"`
	JSON bool   `long:"json" help:"Print the result as JSON"`
}

func (c *DriftDiffCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	report, err := e.Diff(c.Ref)
	if err != nil {
		return err
	}
	if c.JSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	if report.Empty() {
		fmt.Println("no drift")
		return nil
	}
	for _, change := range report.Changes {
		fmt.Printf("%s\t%s\n", change.Kind, change.Path)
	}
	return nil
}

// DriftExportCmd writes an environment's overlay drift as a gzip tarball to
// stdout, or to a file when --output is given.
type DriftExportCmd struct {
	rootFlags
	Ref    string `arg:"" help:"Environment ID, short ID, or name"`
	Output string `long:"output" short:"o" help:"Write to this path instead of stdout"`
}

func (c *DriftExportCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}

	out := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return e.Export(c.Ref, out)
}

// DriftCommitCmd packs an environment's overlay drift into a new layer,
// clearing its writable layer.
type DriftCommitCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *DriftCommitCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	layerHash, err := e.Commit(c.Ref)
	if err != nil {
		return err
	}
	fmt.Printf("committed layer %s\n", layerHash)
	return nil
}
