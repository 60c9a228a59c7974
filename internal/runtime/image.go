package runtime

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// ResolvedImage is the pinned identity of a declared base image: enough to
// make a build reproducible even if the tag is later moved.
type ResolvedImage struct {
	Ref       string
	Digest    string
	MediaType string
}

// ResolvePinnedImageURL resolves ref (which may carry a mutable tag) to its
// current digest, so lockfile.Compute's BaseImageDigest is stable even if the
// tag moves underneath a later rebuild.
func ResolvePinnedImageURL(ref string) (ResolvedImage, error) {
	imgRef, err := name.ParseReference(ref)
	if err != nil {
		return ResolvedImage{}, errs.Wrap(errs.ErrRuntime, "parsing image reference %q: %w", ref, err)
	}
	digest, err := crane.Digest(ref)
	if err != nil {
		return ResolvedImage{}, errs.Wrap(errs.ErrRuntime, "fetching digest for %q: %w", ref, err)
	}
	mediaType, err := mediaTypeHint(ref)
	if err != nil {
		return ResolvedImage{}, err
	}
	return ResolvedImage{Ref: imgRef.Name(), Digest: digest, MediaType: mediaType}, nil
}

// InspectRemoteImage returns just the digest component, the form Resolve
// needs to build a ResolutionResult.
func InspectRemoteImage(ref string) (string, error) {
	resolved, err := ResolvePinnedImageURL(ref)
	if err != nil {
		return "", err
	}
	return resolved.Digest, nil
}

// ImageExists reports whether ref can currently be resolved in its registry.
func ImageExists(ref string) (bool, error) {
	_, err := crane.Digest(ref)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// mediaTypeHint guesses whether a fetched manifest describes a single image
// or a multi-platform index, the same string-sniff the teacher uses rather
// than fully decoding the manifest structure.
func mediaTypeHint(ref string) (string, error) {
	manifest, err := crane.Manifest(ref)
	if err != nil {
		return "", errs.Wrap(errs.ErrRuntime, "fetching manifest for %q: %w", ref, err)
	}
	if strings.Contains(string(manifest), "\"manifests\"") {
		return "application/vnd.oci.image.index.v1+json", nil
	}
	return "application/vnd.oci.image.manifest.v1+json", nil
}

func formatImageRef(registry, image, tag string) string {
	if registry == "" {
		return fmt.Sprintf("%s:%s", image, tag)
	}
	return fmt.Sprintf("%s/%s:%s", registry, image, tag)
}
