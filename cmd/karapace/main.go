// Command karapace builds, inspects, and enters deterministic dev
// environments declared by a karapace.toml manifest.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/marcoallegretti/karapace/internal/config"
	"github.com/marcoallegretti/karapace/internal/engine"
	"github.com/marcoallegretti/karapace/internal/logging"
)

// log is the CLI's shared structured logger, writing debug/error trace to
// stderr alongside the command's own stdout output. Created at package level
// at "info"; main resets its level from the resolved config before
// kong.Parse, so every Run() method sees the configured level.
var log = logging.New("info")

// CLI is the top-level command tree.
type CLI struct {
	New     NewCmd     `cmd:"" help:"Scaffold a karapace.toml, interactively or from a template"`
	Build   BuildCmd   `cmd:"" help:"Build an environment from a karapace.toml"`
	Enter   EnterCmd   `cmd:"" help:"Enter a built environment"`
	Stop    StopCmd    `cmd:"" help:"Stop a running environment"`
	Freeze  FreezeCmd  `cmd:"" help:"Freeze a built environment"`
	Archive ArchiveCmd `cmd:"" help:"Archive a built or frozen environment"`
	Destroy DestroyCmd `cmd:"" help:"Destroy an environment and reclaim its resources"`
	Status  StatusCmd  `cmd:"" help:"Show an environment's lifecycle state"`
	Pin     PinCmd     `cmd:"" help:"Pin a manifest's base image to a resolved digest"`
	Drift   DriftCmd   `cmd:"" help:"Inspect, export, or commit an environment's overlay drift"`
	GC      GCCmd      `cmd:"" help:"Reclaim layers and objects unreferenced by any environment"`
}

type rootFlags struct {
	Store string `long:"store" help:"Override the content-addressable store root"`
}

// BuildCmd builds an environment from a manifest.
type BuildCmd struct {
	rootFlags
	Manifest string  `arg:"" help:"Path to karapace.toml"`
	Name     *string `long:"name" help:"Register a human name for this environment"`
}

func (c *BuildCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	log.WithField("manifest", c.Manifest).Debug("building environment")
	res, err := e.Build(c.Manifest, engine.BuildOpts{Name: c.Name})
	if err != nil {
		log.WithError(err).Error("build failed")
		return err
	}
	if res.CacheHit {
		fmt.Printf("%s already built (cache hit)\n", res.ShortID)
		return nil
	}
	fmt.Printf("built %s (%d layers)\n", res.ShortID, len(res.LayersAdded))
	return nil
}

// EnterCmd enters a built environment.
type EnterCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *EnterCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	return e.Enter(c.Ref)
}

// StopCmd stops a running environment.
type StopCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *StopCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	return e.Stop(c.Ref)
}

// FreezeCmd freezes a built environment.
type FreezeCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *FreezeCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	return e.Freeze(c.Ref)
}

// ArchiveCmd archives a built or frozen environment.
type ArchiveCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *ArchiveCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	return e.Archive(c.Ref)
}

// DestroyCmd destroys an environment.
type DestroyCmd struct {
	rootFlags
	Ref string `arg:"" help:"Environment ID, short ID, or name"`
}

func (c *DestroyCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	return e.Destroy(c.Ref)
}

// StatusCmd reports an environment's lifecycle state.
type StatusCmd struct {
	rootFlags
	Ref  string `arg:"" help:"Environment ID, short ID, or name"`
	JSON bool   `long:"json" help:"Print the result as JSON"`
}

func (c *StatusCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	status, err := e.Status(c.Ref)
	if err != nil {
		return err
	}
	if c.JSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("%s\t%s\trunning=%t\tpid=%d\n", status.EnvID.Short(), status.State, status.Running, status.PID)
	return nil
}

// GCCmd reclaims store space no longer referenced by any environment.
type GCCmd struct {
	rootFlags
	JSON bool `long:"json" help:"Print the result as JSON"`
}

func (c *GCCmd) Run() error {
	e, err := newEngine(c.Store)
	if err != nil {
		return err
	}
	report, err := e.GC()
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
	fmt.Printf("removed %d layers, %d objects\n", len(report.LayersRemoved), len(report.ObjectsRemoved))
	return nil
}

// newEngine resolves runtime configuration (honoring an explicit --store
// override) and opens the store-backed engine.
func newEngine(storeOverride string) (*engine.Engine, error) {
	rt, err := config.Resolve()
	if err != nil {
		return nil, err
	}
	root := rt.StoreRoot
	if storeOverride != "" {
		root = storeOverride
	}
	return engine.New(root)
}

func main() {
	if rt, err := config.Resolve(); err == nil {
		if level, err := logrus.ParseLevel(rt.LogLevel); err == nil {
			log.SetLevel(level)
		}
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("karapace"),
		kong.Description("Build, inspect, and enter deterministic dev environments"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
