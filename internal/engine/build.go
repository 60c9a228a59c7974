package engine

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marcoallegretti/karapace/internal/errs"
	"github.com/marcoallegretti/karapace/internal/lifecycle"
	"github.com/marcoallegretti/karapace/internal/lockfile"
	"github.com/marcoallegretti/karapace/internal/manifest"
	"github.com/marcoallegretti/karapace/internal/runtime"
	"github.com/marcoallegretti/karapace/internal/store"
	"github.com/marcoallegretti/karapace/internal/types"
)

// BuildOpts customizes a Build call. Name, if set, registers a human name
// for the environment (must be unique among live records).
type BuildOpts struct {
	Name *string
}

// BuildResult reports what Build actually did.
type BuildResult struct {
	EnvID       types.EnvID
	ShortID     types.ShortID
	LayersAdded []types.LayerHash
	CacheHit    bool
}

// Build parses and normalizes manifestPath, resolves the declared base image
// and packages via the manifest's chosen backend, computes the
// reproducibility lock file and canonical identity, and — unless an
// existing Built-or-later record already carries that identity (a cache
// hit) — packs the base/system/gui/policy layers and transitions the
// environment to Built.
func (e *Engine) Build(manifestPath string, opts BuildOpts) (BuildResult, error) {
	if err := e.Lock(); err != nil {
		return BuildResult{}, err
	}
	defer e.Unlock()

	if err := checkCancelled(); err != nil {
		return BuildResult{}, err
	}

	m, err := manifest.ParseFile(manifestPath)
	if err != nil {
		return BuildResult{}, err
	}
	n, err := manifest.Normalize(m)
	if err != nil {
		return BuildResult{}, err
	}

	backend, err := runtime.SelectBackend(n.Backend)
	if err != nil {
		return BuildResult{}, err
	}
	if ok, missing := backend.Available(); !ok {
		return BuildResult{}, errs.Wrap(errs.ErrBackendUnavailable, "%s", runtime.FormatMissing(missing))
	}

	res, err := backend.Resolve(runtime.RuntimeSpec{Manifest: n})
	if err != nil {
		return BuildResult{}, err
	}

	lf, err := lockfile.Compute(n, lockfile.Resolution{
		BaseImageDigest: res.BaseImageDigest,
		Packages:        toLockfilePackages(res.Packages),
	})
	if err != nil {
		return BuildResult{}, err
	}

	if existing, err := e.metadata.Get(lf.EnvID); err == nil && isBuiltOrLater(existing.State) {
		return BuildResult{EnvID: existing.EnvID, ShortID: existing.ShortID, CacheHit: true}, nil
	}

	if err := checkCancelled(); err != nil {
		return BuildResult{}, err
	}

	layersAdded, err := e.packLayerSet(n)
	if err != nil {
		return BuildResult{}, err
	}

	meta, err := e.metadata.Get(lf.EnvID)
	if err != nil {
		meta = &store.EnvMetadata{
			EnvID:     lf.EnvID,
			ShortID:   lf.EnvID.Short(),
			Name:      opts.Name,
			State:     store.StateDefined,
			UpperDir:  e.layout.UpperDir(lf.EnvID),
			CreatedAt: now(),
		}
		if err := e.lifecycleMutate(meta, store.StateBuilt); err != nil {
			return BuildResult{}, err
		}
		meta.Layers = layersAdded.all
		meta.PolicyLayer = layersAdded.policy
		built := now()
		meta.BuiltAt = &built
		if err := e.metadata.Insert(meta); err != nil {
			return BuildResult{}, err
		}
	} else {
		meta, err = e.metadata.Update(lf.EnvID, func(m *store.EnvMetadata) error {
			if err := lifecycle.ValidateTransition(m.State, store.StateBuilt); err != nil {
				return err
			}
			m.State = store.StateBuilt
			m.Layers = layersAdded.all
			m.PolicyLayer = layersAdded.policy
			built := now()
			m.BuiltAt = &built
			return nil
		})
		if err != nil {
			return BuildResult{}, err
		}
	}

	if err := e.saveManifestFile(meta.EnvID, n); err != nil {
		return BuildResult{}, err
	}
	if err := e.saveLockFile(lf); err != nil {
		return BuildResult{}, err
	}

	return BuildResult{EnvID: meta.EnvID, ShortID: meta.ShortID, LayersAdded: layersAdded.all}, nil
}

func isBuiltOrLater(s store.EnvState) bool {
	switch s {
	case store.StateBuilt, store.StateRunning, store.StateFrozen, store.StateArchived:
		return true
	default:
		return false
	}
}

// lifecycleMutate validates and applies a transition on a not-yet-inserted
// record (used for the first build of a brand-new environment).
func (e *Engine) lifecycleMutate(meta *store.EnvMetadata, to store.EnvState) error {
	if err := lifecycle.ValidateTransition(meta.State, to); err != nil {
		return err
	}
	meta.State = to
	return nil
}

type layerSet struct {
	all    []types.LayerHash
	policy *types.LayerHash
}

// packLayerSet packs the base/system/gui/policy layers. The four packs are
// independent (no shared mutable state beyond the idempotent,
// content-addressed object store), so they run concurrently via errgroup —
// the same pattern the original source uses for its independent layer
// writes.
func (e *Engine) packLayerSet(n *manifest.Normalized) (layerSet, error) {
	var (
		g                         errgroup.Group
		mu                        sync.Mutex
		base, system, gui, policy types.LayerHash
	)

	g.Go(func() error {
		hash, err := e.packTextLayer(store.LayerBase, nil, []byte("base:"+n.BaseImage))
		if err != nil {
			return err
		}
		mu.Lock()
		base = hash
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		hash, err := e.packTextLayer(store.LayerSystem, nil, []byte(joinLines("pkg:", n.Packages)))
		if err != nil {
			return err
		}
		mu.Lock()
		system = hash
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		hash, err := e.packTextLayer(store.LayerGui, nil, []byte(joinLines("app:", n.Apps)))
		if err != nil {
			return err
		}
		mu.Lock()
		gui = hash
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		hash, err := e.packTextLayer(store.LayerPolicy, nil, []byte(joinLines("mount:", mountLines(n))))
		if err != nil {
			return err
		}
		mu.Lock()
		policy = hash
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return layerSet{}, err
	}

	return layerSet{all: []types.LayerHash{base, system, gui, policy}, policy: &policy}, nil
}

// packTextLayer packs a single object built from content into a layer of
// kind, with no parent (base/system/gui/policy are each a flat, independent
// layer in this design — a build never has to resolve cross-layer parent
// chains, only user commits chain onto the build's layer set via drift).
func (e *Engine) packTextLayer(kind store.LayerKind, parent *types.LayerHash, content []byte) (types.LayerHash, error) {
	hash, err := e.objects.Put(content)
	if err != nil {
		return "", err
	}
	return e.layers.Pack(kind, parent, []types.ObjectHash{hash})
}

func joinLines(prefix string, items []string) string {
	out := ""
	for _, item := range items {
		out += prefix + item + "\n"
	}
	return out
}

func mountLines(n *manifest.Normalized) []string {
	lines := make([]string, len(n.Mounts))
	for i, m := range n.Mounts {
		lines[i] = m.Label + ":" + m.Host + ":" + m.Container
	}
	return lines
}

func toLockfilePackages(pkgs []runtime.ResolvedPackage) []lockfile.ResolvedPackage {
	out := make([]lockfile.ResolvedPackage, len(pkgs))
	for i, p := range pkgs {
		out[i] = lockfile.ResolvedPackage{Name: p.Name, Version: p.Version}
	}
	return out
}
