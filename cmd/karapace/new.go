package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/marcoallegretti/karapace/internal/manifest"
)

const destManifest = "karapace.toml"

// NewCmd scaffolds a karapace.toml, either from a named template or through
// an interactive wizard when stdin is a terminal.
type NewCmd struct {
	Name     string  `arg:"" help:"Name recorded in the scaffold result (not written into the manifest)"`
	Template *string `long:"template" help:"Start from a built-in template: minimal, dev, gui-dev, rust-dev, ubuntu-dev"`
	Force    bool    `long:"force" help:"Overwrite an existing karapace.toml without prompting"`
	JSON     bool    `long:"json" help:"Print the result as JSON"`
}

func (c *NewCmd) Run() error {
	isTTY := isTerminalStdin()

	if err := ensureCanWrite(destManifest, c.Force, isTTY); err != nil {
		return err
	}

	var m *manifest.Manifest
	if c.Template != nil {
		src, ok := templateSource(*c.Template)
		if !ok {
			return fmt.Errorf("unknown template %q (expected one of %s)", *c.Template, strings.Join(templateNames(), ", "))
		}
		parsed, err := manifest.Parse([]byte(src))
		if err != nil {
			return fmt.Errorf("built-in template %q failed to parse: %w", *c.Template, err)
		}
		m = parsed
	} else {
		if !isTTY {
			return fmt.Errorf("no --template provided and stdin is not a terminal")
		}
		wizard, err := runNewWizard()
		if err != nil {
			return err
		}
		m = wizard
	}

	if isTTY {
		if err := refineInteractively(m); err != nil {
			return err
		}
	}

	data, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	if err := writeAtomic(destManifest, data); err != nil {
		return fmt.Errorf("writing %s: %w", destManifest, err)
	}

	return printNewResult(c.Name, c.Template, c.JSON)
}

func ensureCanWrite(dest string, force, isTTY bool) error {
	if _, err := os.Stat(dest); os.IsNotExist(err) || force {
		return nil
	}
	if !isTTY {
		return fmt.Errorf("refusing to overwrite existing ./%s (pass --force)", dest)
	}
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("overwrite ./%s", dest),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return fmt.Errorf("refusing to overwrite existing ./%s (pass --force)", dest)
	}
	return nil
}

func runNewWizard() (*manifest.Manifest, error) {
	imagePrompt := promptui.Prompt{Label: "base image", Default: "rolling"}
	image, err := imagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return &manifest.Manifest{
		ManifestVersion: manifest.SupportedVersion,
		Base:            manifest.Base{Image: image},
	}, nil
}

func refineInteractively(m *manifest.Manifest) error {
	pkgPrompt := promptui.Prompt{Label: "packages (space-separated, empty to skip)"}
	packages, err := pkgPrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if strings.TrimSpace(packages) != "" {
		m.System.Packages = append(m.System.Packages, strings.Fields(packages)...)
	}

	mountPrompt := promptui.Prompt{Label: "mount (format '<host>:<container>', empty to skip)"}
	mount, err := mountPrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if strings.TrimSpace(mount) != "" {
		if m.Mounts == nil {
			m.Mounts = make(map[string]string)
		}
		m.Mounts["workspace"] = mount
	}

	backends := []string{"namespace", "oci", "mock"}
	backendSelect := promptui.Select{Label: "runtime backend", Items: backends}
	_, backend, err := backendSelect.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	m.Runtime.Backend = backend

	isolatePrompt := promptui.Prompt{Label: "enable network isolation? (y/N)"}
	isolate, err := isolatePrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	m.Runtime.NetworkIsolation = strings.EqualFold(strings.TrimSpace(isolate), "y")

	return nil
}

func printNewResult(name string, template *string, asJSON bool) error {
	if asJSON {
		tplField := "null"
		if template != nil {
			tplField = fmt.Sprintf("%q", *template)
		}
		fmt.Printf("{\"status\":\"written\",\"path\":\"./%s\",\"name\":%q,\"template\":%s}\n", destManifest, name, tplField)
		return nil
	}
	fmt.Printf("wrote ./%s for %q\n", destManifest, name)
	if template != nil {
		fmt.Printf("template: %s\n", *template)
	}
	return nil
}
