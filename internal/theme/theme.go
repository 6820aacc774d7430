package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// importPattern matches @import "a.css", @import 'a.css' and
// @import url("a.css") with an optional trailing semicolon.
var importPattern = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a stylesheet with its imports inlined.
type Theme struct {
	Name    string
	Path    string // empty for bundled themes
	CSS     string
	ModTime time.Time
	Bundled bool
}

// ThemesDir returns ~/.config/volctl/themes.
func ThemesDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(dir, "volctl", "themes"), nil
}

// LoadFile reads a user theme from path.
func LoadFile(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(data), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// LoadBundled returns a bundled theme with its imports inlined.
func LoadBundled(name string) (*Theme, bool) {
	css, ok := GetEmbeddedTheme(name)
	if !ok {
		return nil, false
	}
	return &Theme{Name: name, CSS: ProcessImports(css, "", nil), Bundled: true}, true
}

// Resolve finds a theme by name. A user theme in dir shadows a bundled
// one of the same name, and an unknown name yields the default theme.
func Resolve(dir, name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if dir != "" {
		t, err := LoadFile(name, filepath.Join(dir, name+".css"))
		switch {
		case err == nil:
			return t, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to load theme %q: %w", name, err)
		}
	}

	if t, ok := LoadBundled(name); ok {
		return t, nil
	}
	t, _ := LoadBundled(DefaultThemeName)
	return t, nil
}

// ProcessImports inlines @import rules. Relative paths resolve against
// baseDir, then against the bundled partials and themes. seen guards
// against import cycles and may be nil.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importPattern.ReplaceAllStringFunc(css, func(rule string) string {
		m := importPattern.FindStringSubmatch(rule)
		if len(m) < 2 {
			return rule
		}
		ref := m[1]

		full := ref
		if !filepath.IsAbs(ref) {
			full = filepath.Join(baseDir, ref)
		}
		if seen[full] {
			return "/* circular import prevented: " + ref + " */"
		}
		seen[full] = true

		data, err := os.ReadFile(full)
		if err == nil {
			return "/* imported: " + ref + " */\n" + ProcessImports(string(data), filepath.Dir(full), seen)
		}

		base := filepath.Base(ref)
		if strings.HasPrefix(base, "_") {
			if css, ok := GetEmbeddedPartial(base); ok {
				return "/* imported (embedded): " + ref + " */\n" + css
			}
		}
		if css, ok := GetEmbeddedTheme(strings.TrimSuffix(base, ".css")); ok {
			return "/* imported (embedded): " + ref + " */\n" + ProcessImports(css, "", seen)
		}
		return "/* import failed: " + ref + " - " + err.Error() + " */"
	})
}

// Reload rereads a user theme. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.Bundled {
		return false, nil
	}

	fresh, err := LoadFile(t.Name, t.Path)
	if err != nil {
		return false, err
	}
	changed := fresh.CSS != t.CSS
	t.CSS = fresh.CSS
	t.ModTime = fresh.ModTime
	return changed, nil
}

// Info describes an available theme.
type Info struct {
	Name    string
	Path    string
	Bundled bool
	// Shadows is set on a user theme that replaces a bundled one.
	Shadows bool
}

// List returns the bundled themes followed by the user themes in dir,
// matching what Resolve would load: a user theme named like a bundled one
// takes the bundled entry's place.
func List(dir string) ([]Info, error) {
	index := make(map[string]int)
	var out []Info

	for _, name := range ListEmbeddedThemes() {
		index[name] = len(out)
		out = append(out, Info{Name: name, Bundled: true})
	}
	if dir == "" {
		return out, nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || filepath.Ext(file) != ".css" || strings.HasPrefix(file, "_") {
			continue
		}
		name := strings.TrimSuffix(file, ".css")
		info := Info{Name: name, Path: filepath.Join(dir, file), Shadows: IsEmbeddedTheme(name)}
		if i, ok := index[name]; ok {
			out[i] = info
			continue
		}
		index[name] = len(out)
		out = append(out, info)
	}
	return out, nil
}
