package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

// Bundled holds the stylesheets shipped with volctl.
//
//go:embed themes/*.css
var Bundled embed.FS

// DefaultThemeName is the theme used when none is configured.
const DefaultThemeName = "default"

// BundledThemes lists the shipped theme names.
var BundledThemes = []string{"default", "minimal"}

func readBundled(file string) (string, bool) {
	data, err := Bundled.ReadFile(path.Join("themes", file))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// GetEmbeddedTheme returns a bundled theme's raw CSS. Imports are left
// unresolved.
func GetEmbeddedTheme(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	return readBundled(name + ".css")
}

// GetEmbeddedPartial returns a bundled partial. The leading underscore
// and the extension are optional.
func GetEmbeddedPartial(name string) (string, bool) {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "_"), ".css")
	return readBundled("_" + name + ".css")
}

// ListEmbeddedThemes returns the bundled theme names without partials.
func ListEmbeddedThemes() []string {
	entries, err := fs.ReadDir(Bundled, "themes")
	if err != nil {
		return BundledThemes
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	return names
}

// IsEmbeddedTheme reports whether name is bundled.
func IsEmbeddedTheme(name string) bool {
	_, ok := GetEmbeddedTheme(name)
	return ok
}
