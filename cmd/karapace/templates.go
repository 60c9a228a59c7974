package main

// templateSource returns the built-in karapace.toml text for a named
// starting point, mirroring the fixed template set the original CLI ships
// under examples/.
func templateSource(name string) (string, bool) {
	src, ok := templates[name]
	return src, ok
}

var templates = map[string]string{
	"minimal": `manifest_version = 1

[base]
image = "rolling"
`,
	"dev": `manifest_version = 1

[base]
image = "rolling"

[system]
packages = ["git", "curl", "build-essential"]

[runtime]
backend = "namespace"
`,
	"gui-dev": `manifest_version = 1

[base]
image = "rolling"

[system]
packages = ["git", "curl"]

[gui]
apps = ["firefox"]

[hardware]
gpu = true

[runtime]
backend = "namespace"
`,
	"rust-dev": `manifest_version = 1

[base]
image = "rolling"

[system]
packages = ["git", "curl", "rustup", "build-essential"]

[runtime]
backend = "namespace"
`,
	"ubuntu-dev": `manifest_version = 1

[base]
image = "ubuntu-rolling"

[system]
packages = ["git", "curl", "build-essential"]

[runtime]
backend = "oci"
`,
}

func templateNames() []string {
	return []string{"minimal", "dev", "gui-dev", "rust-dev", "ubuntu-dev"}
}
