package main

import (
	"fmt"
	"strings"

	"github.com/marcoallegretti/karapace/internal/config"
	"github.com/marcoallegretti/karapace/internal/engine"
	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/runtime"
)

// PinCmd resolves a manifest's base.image to a digest-pinned URL and
// rewrites the manifest in place, optionally rebuilding to refresh the lock
// file immediately after.
type PinCmd struct {
	Manifest  string `arg:"" help:"Path to karapace.toml"`
	Check     bool   `long:"check" help:"Report whether base.image is already pinned; do not modify anything"`
	WriteLock bool   `long:"write-lock" help:"Rebuild after pinning so the lock file reflects the new digest"`
	JSON      bool   `long:"json" help:"Print the result as JSON"`
}

func isPinned(image string) bool {
	s := strings.TrimSpace(image)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (c *PinCmd) Run() error {
	m, err := manifest.ParseFile(c.Manifest)
	if err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	if c.Check {
		if isPinned(m.Base.Image) {
			if c.JSON {
				fmt.Printf("{\"status\":\"pinned\",\"manifest\":%q}\n", c.Manifest)
			}
			return nil
		}
		return fmt.Errorf("base.image is not pinned: %q (run 'karapace pin')", m.Base.Image)
	}

	resolved, err := runtime.ResolvePinnedImageURL(m.Base.Image)
	if err != nil {
		return fmt.Errorf("failed to resolve pinned image URL: %w", err)
	}
	m.Base.Image = resolved.Ref

	data, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	if err := writeAtomic(c.Manifest, data); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}

	if c.WriteLock {
		rt, err := config.Resolve()
		if err != nil {
			return err
		}
		e, err := engine.New(rt.StoreRoot)
		if err != nil {
			return err
		}
		if _, err := e.Build(c.Manifest, engine.BuildOpts{}); err != nil {
			return err
		}
	}

	if c.JSON {
		fmt.Printf("{\"status\":\"pinned\",\"manifest\":%q,\"base_image\":%q}\n", c.Manifest, m.Base.Image)
	} else {
		fmt.Printf("pinned base image in %s\n", c.Manifest)
	}
	return nil
}
