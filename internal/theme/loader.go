package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the CSS provider for the popup. Its methods run on the GTK
// thread; hot reloads are marshalled there with glib.IdleAdd.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	dir      string
	theme    *Theme
	watcher  *Watcher
}

// NewLoader creates a loader reading user themes from ThemesDir.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := ThemesDir()
	if err != nil {
		logger.Warn("no user themes directory", "error", err)
		dir = ""
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		dir:      dir,
	}
}

// Load resolves name and loads it into the provider. A user theme is
// watched for changes until the next Load or Close.
func (l *Loader) Load(name string) error {
	t, err := Resolve(l.dir, name)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopWatcher()
	l.theme = t
	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled)

	if t.Bundled {
		return nil
	}
	w, err := NewWatcher(t, func(css string) {
		glib.IdleAdd(func() { l.provider.LoadFromString(css) })
	}, l.logger)
	if err != nil {
		l.logger.Warn("theme hot reload unavailable", "error", err)
		return nil
	}
	if err := w.Start(); err != nil {
		l.logger.Warn("theme hot reload unavailable", "error", err)
		return nil
	}
	l.watcher = w
	return nil
}

// Apply installs the provider on display, or the default display if nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, theme not applied")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// Current returns the loaded theme.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// Close stops the hot reload watcher.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopWatcher()
}

func (l *Loader) stopWatcher() {
	if l.watcher == nil {
		return
	}
	if err := l.watcher.Stop(); err != nil {
		l.logger.Debug("failed to stop theme watcher", "error", err)
	}
	l.watcher = nil
}
