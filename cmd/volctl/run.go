package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/volctl/internal/audio"
	"github.com/jmylchreest/volctl/internal/backend"
	"github.com/jmylchreest/volctl/internal/config"
	"github.com/jmylchreest/volctl/internal/daemon"
	"github.com/jmylchreest/volctl/internal/display"
	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/placement"
	"github.com/jmylchreest/volctl/internal/popup"
	"github.com/jmylchreest/volctl/internal/theme"
	"github.com/jmylchreest/volctl/internal/tray"
	"github.com/jmylchreest/volctl/internal/ui"
)

const appID = "io.github.jmylchreest.volctl"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tray icon (default)",
	RunE:  runTray,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// popupOptions derives the popup controller options from cfg.
func popupOptions(c *config.Config) popup.Options {
	return popup.Options{
		Clamp:  c.Popup.ClampToWork,
		Width:  c.Popup.Width,
		Height: c.Popup.Height,
		Screen: display.ScreenSize,

		AutoClose: c.Popup.AutoClose,
		Timeout:   c.Popup.Timeout.Duration(),
		Timers:    display.IdleScheduler{},
	}
}

// overlayOptions derives the on-screen display options from cfg.
func overlayOptions(c *config.Config) popup.OverlayOptions {
	return popup.OverlayOptions{
		Timeout: c.OSD.Timeout.Duration(),
		Anchor:  popup.AnchorFor(c.OSD.Position),
		Margin:  popup.OverlayMargin,
		Fade:    true,
		Screen:  display.ScreenSize,
		Timers:  display.IdleScheduler{},
	}
}

// app bundles everything owned by the GTK main loop. Fields are only
// touched on the UI thread.
type app struct {
	gtk    *adw.Application
	ctx    context.Context
	cancel context.CancelFunc

	cfg        *config.Config
	configPath string

	mixer    mixer.Backend
	requests *mixer.Requests
	watcher  *mixer.Watcher
	placer   placement.Placer
	popup    *popup.Controller
	window   *display.PopupWindow
	streams  []mixer.Stream

	overlayPlacer placement.Placer
	overlay       *popup.Overlay

	tray     *tray.Service
	loop     *ui.Loop
	feedback *audio.Feedback
	themes   *theme.Loader
	notifier *daemon.Notifier
	reloader *daemon.ConfigWatcher

	started bool
	err     error
}

func runTray(cmd *cobra.Command, args []string) error {
	logger.Info("starting volctl", "version", version)

	configPath, err := resolvedConfigPath()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &app{
		gtk:        adw.NewApplication(appID, 0),
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		configPath: configPath,
		mixer:      newMixer(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			glib.IdleAdd(a.gtk.Quit)
		case <-ctx.Done():
		}
	}()

	a.gtk.ConnectActivate(a.activate)
	a.gtk.ConnectShutdown(a.shutdown)

	// GTK must not see cobra's flags.
	status := a.gtk.Run(os.Args[:1])
	if a.err != nil {
		return a.err
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}

	logger.Info("volctl stopped")
	return nil
}

func (a *app) activate() {
	if a.started {
		logger.Debug("already running")
		return
	}
	a.started = true
	a.gtk.Hold()

	detector := backend.NewDetector(a.cfg.Display.Backend, logger,
		display.GDKProbe,
		backend.EnvProbe(os.Getenv),
	)
	kind, err := detector.Detect()
	if err != nil {
		a.fail(err)
		return
	}
	logger.Info("display backend", "backend", kind.String())

	a.placer, err = placement.New(kind, placement.Deps{
		Scheduler:  display.IdleScheduler{},
		LayerShell: display.LayerShell{},
		Logger:     logger,
	})
	if err != nil {
		a.fail(err)
		return
	}

	a.notifier = newNotifier(a.cfg)

	a.themes = theme.NewLoader(logger)
	if err := a.themes.Load(a.cfg.Theme.Name); err != nil {
		logger.Warn("failed to load theme", "theme", a.cfg.Theme.Name, "error", err)
		a.notifier.NotifyThemeError(err)
	}
	a.themes.Apply(nil)

	a.feedback = audio.NewFeedback(a.cfg, logger)
	if err := a.feedback.Start(a.ctx); err != nil {
		logger.Warn("failed to start feedback sound", "error", err)
	}

	a.popup = popup.NewController(a.newWindow, a.placer, popupOptions(a.cfg), logger)
	a.startOverlay(kind)

	a.requests = mixer.NewRequests(mixer.DefaultRequestTimeout, logger)
	a.requests.Start(a.ctx)

	channel := tray.NewChannel()
	a.tray = tray.NewService(channel, tray.Options{FullMenu: a.cfg.Tray.FullMenu}, logger)

	deps := ui.Deps{
		Channel:   channel,
		Scheduler: display.IdleScheduler{},
		Mixer:     a.mixer,
		Popup:     a.popup,
		Tray:      a.tray,
		Feedback:  a.feedback,
		Executor:  a.requests,
		OnState: func(s mixer.State) {
			if a.window != nil {
				a.window.Volume.SetState(s)
			}
		},
		OnStreams: func(streams []mixer.Stream) {
			a.streams = streams
			if a.window != nil {
				a.window.Streams.SetStreams(streams)
			}
		},
		OnQuit: []func(){a.stopServices},
		Quit:   a.gtk.Quit,
		Logger: logger,
	}
	// A nil *popup.Overlay must not become a non-nil interface.
	if a.overlay != nil {
		deps.Overlay = a.overlay
	}
	a.loop = ui.NewLoop(deps, ui.OptionsFromConfig(a.cfg))

	a.watcher = mixer.NewWatcher(a.mixer, a.cfg.Mixer.PollInterval.Duration(), logger)
	a.watcher.SetChangeCallback(func(s mixer.State) {
		glib.IdleAdd(func() { a.loop.HandleState(s) })
	})
	a.watcher.SetStreamsCallback(func(streams []mixer.Stream) {
		glib.IdleAdd(func() { a.loop.HandleStreams(streams) })
	})
	a.watcher.SetErrorCallback(a.notifier.NotifyMixerError)
	if err := a.watcher.Start(a.ctx); err != nil {
		logger.Warn("failed to start mixer watcher", "error", err)
	}

	go func() {
		if err := a.tray.Run(a.ctx); err != nil {
			logger.Error("tray service stopped", "error", err)
			glib.IdleAdd(func() { a.fail(err) })
		}
	}()
	go func() {
		if err := a.loop.Run(a.ctx); err != nil {
			logger.Error("ui loop stopped", "error", err)
		}
		// Without the tray there is nothing left to interact with.
		glib.IdleAdd(a.gtk.Quit)
	}()

	a.startReloader()

	logger.Info("volctl ready")
}

// newWindow is the popup factory. The window is built on first click.
func (a *app) newWindow() (popup.Window, error) {
	w := display.NewPopupWindow(&a.gtk.Application, a.cfg, logger)
	w.Volume.SetState(a.loop.State())
	w.Volume.OnVolume(a.loop.SetVolume)
	w.Volume.OnMute(a.loop.SetMuted)
	w.Streams.SetStreams(a.streams)
	w.Streams.OnVolume(a.loop.SetStreamVolume)
	w.Streams.OnMute(a.loop.SetStreamMuted)
	a.window = w
	return w, nil
}

// startOverlay sets up the on-screen display with its own placer, since
// the overlay surface is anchored differently from the popup. Failure
// leaves the tray running without it.
func (a *app) startOverlay(kind backend.Kind) {
	placer, err := placement.New(kind, placement.Deps{
		Scheduler:  display.IdleScheduler{},
		LayerShell: display.LayerShell{},
		Layout:     popup.AnchorFor(a.cfg.OSD.Position).Layout(popup.OverlayMargin),
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("on-screen display unavailable", "error", err)
		return
	}
	a.overlayPlacer = placer
	a.overlay = popup.NewOverlay(func() (popup.OverlayWindow, error) {
		return display.NewOverlayWindow(&a.gtk.Application, a.cfg), nil
	}, placer, overlayOptions(a.cfg), logger)
}

func newNotifier(c *config.Config) *daemon.Notifier {
	var sender daemon.Sender
	if s, err := daemon.NewDBusSender(); err != nil {
		logger.Debug("desktop notifications unavailable", "error", err)
	} else {
		sender = s
	}
	n := daemon.NewNotifier(sender, logger)
	n.SetEnabled(c.Tray.NotifyErrors)
	return n
}

func (a *app) startReloader() {
	w, err := daemon.NewConfigWatcher(a.configPath, a.cfg, logger)
	if err != nil {
		logger.Warn("config hot reload unavailable", "error", err)
		return
	}
	w.SetReloadCallback(func(c *config.Config) {
		glib.IdleAdd(func() { a.applyConfig(c) })
	})
	w.SetErrorCallback(a.notifier.NotifyConfigError)
	if err := w.Start(); err != nil {
		logger.Warn("config hot reload unavailable", "error", err)
		return
	}
	a.reloader = w
}

// applyConfig swaps in a reloaded config. Tray menu and display backend
// changes need a restart.
func (a *app) applyConfig(c *config.Config) {
	old := a.cfg
	a.cfg = c

	a.loop.SetOptions(ui.OptionsFromConfig(c))
	a.popup.SetOptions(popupOptions(c))
	if a.overlay != nil {
		a.overlay.SetOptions(overlayOptions(c))
	}
	if a.window != nil {
		a.window.ShowStreams(c.Popup.ShowStreams)
	}
	a.feedback.UpdateConfig(c)
	a.notifier.SetEnabled(c.Tray.NotifyErrors)

	if c.Theme.Name != old.Theme.Name {
		if err := a.themes.Load(c.Theme.Name); err != nil {
			logger.Warn("failed to load theme", "theme", c.Theme.Name, "error", err)
			a.notifier.NotifyThemeError(err)
		}
	}

	if c.Mixer.PollInterval != old.Mixer.PollInterval {
		interval := c.Mixer.PollInterval.Duration()
		go func() {
			a.watcher.Stop()
			a.watcher.SetPollInterval(interval)
			if err := a.watcher.Start(a.ctx); err != nil {
				logger.Warn("failed to restart mixer watcher", "error", err)
			}
		}()
	}

	if c.Mixer.Sink != old.Mixer.Sink || c.Mixer.Driver != old.Mixer.Driver ||
		c.Mixer.Server != old.Mixer.Server || c.Tray.FullMenu != old.Tray.FullMenu ||
		c.Display.Backend != old.Display.Backend || c.Volume.AllowExtra != old.Volume.AllowExtra ||
		c.OSD.Position != old.OSD.Position || c.OSD.Scale != old.OSD.Scale {
		logger.Info("some settings take effect after a restart")
	}
}

// fail records err as the exit error and quits.
func (a *app) fail(err error) {
	if a.err == nil {
		a.err = err
	}
	if errors.Is(err, backend.ErrUnresolvableBackend) {
		logger.Error("cannot determine display backend", "error", err)
	}
	a.gtk.Quit()
}

// stopServices releases the placers and stops the background workers. It
// runs on the UI thread after the popup is destroyed on quit, and again
// from shutdown.
func (a *app) stopServices() {
	a.cancel()
	if a.placer != nil {
		if err := a.placer.Close(); err != nil {
			logger.Debug("failed to close placer", "error", err)
		}
	}
	if a.overlay != nil {
		a.overlay.Destroy()
	}
	if a.overlayPlacer != nil {
		if err := a.overlayPlacer.Close(); err != nil {
			logger.Debug("failed to close overlay placer", "error", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.requests != nil {
		a.requests.Stop()
	}
	closeMixer(a.mixer)
	if a.reloader != nil {
		if err := a.reloader.Stop(); err != nil {
			logger.Debug("failed to stop config watcher", "error", err)
		}
	}
	if a.themes != nil {
		a.themes.Close()
	}
}

func (a *app) shutdown() {
	logger.Info("application shutting down")
	if a.popup != nil {
		a.popup.Destroy()
	}
	a.stopServices()
	if a.feedback != nil {
		a.feedback.Stop()
	}
}
