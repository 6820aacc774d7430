package tray

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/jmylchreest/volctl/internal/mixer"
)

const (
	// ItemInterface is the StatusNotifierItem interface name.
	ItemInterface = "org.kde.StatusNotifierItem"
	// ItemPath is the object path of the exported item.
	ItemPath = dbus.ObjectPath("/StatusNotifierItem")
	// WatcherName is the bus name of the StatusNotifierWatcher.
	WatcherName = "org.kde.StatusNotifierWatcher"
	// WatcherPath is the object path of the StatusNotifierWatcher.
	WatcherPath = dbus.ObjectPath("/StatusNotifierWatcher")
	// ItemCategory is the StatusNotifierItem Category property.
	ItemCategory = "Hardware"
)

var (
	errUnknownMenuItem     = errors.New("unknown menu item")
	errUnknownMenuProperty = errors.New("unknown menu property")
)

// Options configures the tray service.
type Options struct {
	// FullMenu adds Mute, Mixer, Preferences and About entries to the menu.
	FullMenu bool
}

// Service exports the tray icon on the session bus and forwards user
// actions into a Channel.
//
// godbus runs every exported method on its own goroutine, so the handlers
// only reply. Calls are decoded on the bus reader goroutine, in the order
// they arrive, into an unbounded queue that a single pump drains into the
// channel.
type Service struct {
	out    *Channel
	logger *slog.Logger
	menu   *menu

	pending *queue

	// updates is a latest-wins mailbox written by the UI thread.
	updates chan mixer.State

	connect func(opts ...dbus.ConnOption) (*dbus.Conn, error)
	publish func(state mixer.State)

	conn    *dbus.Conn
	props   *prop.Properties
	busName string
	current mixer.State
}

// NewService creates a tray service that sends to out.
func NewService(out *Channel, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		out:     out,
		logger:  logger,
		pending: newQueue(),
		updates: make(chan mixer.State, 1),
		connect: dbus.ConnectSessionBus,
	}
	items := QuitMenu()
	if opts.FullMenu {
		items = FullMenu()
	}
	s.menu = newMenu(items)
	s.publish = func(mixer.State) {}
	return s
}

// Update posts a new mixer state for display. Only the most recent state
// is kept if the tray has not picked up the previous one yet.
func (s *Service) Update(state mixer.State) {
	for {
		select {
		case s.updates <- state:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// Run connects to the session bus, exports the item and serves until ctx
// is cancelled. The goroutine is locked to its OS thread for the duration.
// The output channel is closed when Run returns; queued messages that were
// not yet sent are dropped.
func (s *Service) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, cancel := context.WithCancel(ctx)
	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		s.pump(ctx)
	}()
	defer func() {
		cancel()
		s.out.Close()
		<-pumped
	}()

	conn, err := s.connect(dbus.WithIncomingInterceptor(s.intercept))
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()
	s.conn = conn

	if err := s.export(conn); err != nil {
		return err
	}

	s.busName = fmt.Sprintf("org.kde.StatusNotifierItem-%d-1", os.Getpid())
	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", s.busName)
	}

	signals := make(chan *dbus.Signal, 4)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, WatcherName),
	); err != nil {
		s.logger.Warn("failed to watch for status notifier watcher", "error", err)
	}
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if err := s.register(); err != nil {
		s.logger.Warn("status notifier watcher unavailable", "error", err)
	}

	s.logger.Info("tray icon exported", "bus_name", s.busName, "path", ItemPath)
	return s.loop(ctx, signals)
}

func (s *Service) loop(ctx context.Context, signals <-chan *dbus.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case state := <-s.updates:
			s.current = state
			s.publish(state)
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if watcherStarted(sig) {
				if err := s.register(); err != nil {
					s.logger.Warn("failed to register with status notifier watcher", "error", err)
				}
			}
		}
	}
}

func watcherStarted(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
		return false
	}
	name, _ := sig.Body[0].(string)
	newOwner, _ := sig.Body[2].(string)
	return name == WatcherName && newOwner != ""
}

func (s *Service) register() error {
	obj := s.conn.Object(WatcherName, WatcherPath)
	if err := obj.Call(WatcherName+".RegisterStatusNotifierItem", 0, s.busName).Err; err != nil {
		return fmt.Errorf("RegisterStatusNotifierItem: %w", err)
	}
	s.logger.Debug("registered with status notifier watcher")
	return nil
}

// intercept runs on the bus reader goroutine for every incoming message
// and queues the tray messages a method call produces. It never blocks.
func (s *Service) intercept(msg *dbus.Message) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	path, _ := msg.Headers[dbus.FieldPath].Value().(dbus.ObjectPath)
	iface, _ := msg.Headers[dbus.FieldInterface].Value().(string)
	member, _ := msg.Headers[dbus.FieldMember].Value().(string)

	var out []Message
	switch {
	case path == ItemPath && (iface == ItemInterface || iface == ""):
		out = itemMessages(member, msg.Body)
	case path == MenuPath && (iface == MenuInterface || iface == ""):
		out = s.menu.messages(member, msg.Body)
	}
	for _, m := range out {
		s.pending.push(m)
	}
}

// itemMessages decodes a StatusNotifierItem call. Malformed bodies produce
// nothing; the exported handler rejects them.
func itemMessages(member string, body []any) []Message {
	switch member {
	case "Activate":
		var x, y int32
		if err := dbus.Store(body, &x, &y); err != nil {
			return nil
		}
		return []Message{Activate(int(x), int(y))}
	case "SecondaryActivate":
		var x, y int32
		if err := dbus.Store(body, &x, &y); err != nil {
			return nil
		}
		return []Message{Simple(KindMute)}
	case "Scroll":
		var delta int32
		var orientation string
		if err := dbus.Store(body, &delta, &orientation); err != nil {
			return nil
		}
		if !strings.EqualFold(orientation, "vertical") {
			return nil
		}
		return []Message{Scroll(int(delta))}
	}
	return nil
}

// pump is the only sender on the output channel. It blocks while the UI
// has not drained the previous message.
func (s *Service) pump(ctx context.Context) {
	for {
		msg, ok := s.pending.pop(ctx)
		if !ok {
			return
		}
		if err := s.out.Send(msg); err != nil {
			s.logger.Debug("dropping tray message", "kind", msg.Kind, "error", err)
			return
		}
	}
}

func (s *Service) export(conn *dbus.Conn) error {
	it := item{s: s}
	if err := conn.Export(it, ItemPath, ItemInterface); err != nil {
		return fmt.Errorf("failed to export item: %w", err)
	}

	props, err := prop.Export(conn, ItemPath, prop.Map{
		ItemInterface: s.itemProperties(),
	})
	if err != nil {
		return fmt.Errorf("failed to export item properties: %w", err)
	}
	s.props = props

	itemNode := &introspect.Node{
		Name: string(ItemPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ItemInterface,
				Methods:    introspect.Methods(it),
				Properties: props.Introspection(ItemInterface),
				Signals:    itemSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(itemNode), ItemPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export item introspectable: %w", err)
	}

	if err := conn.Export(s.menu, MenuPath, MenuInterface); err != nil {
		return fmt.Errorf("failed to export menu: %w", err)
	}
	menuProps, err := prop.Export(conn, MenuPath, prop.Map{
		MenuInterface: {
			"Version":       {Value: menuVersion, Emit: prop.EmitFalse},
			"TextDirection": {Value: "ltr", Emit: prop.EmitFalse},
			"Status":        {Value: "normal", Emit: prop.EmitFalse},
			"IconThemePath": {Value: []string{}, Emit: prop.EmitFalse},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export menu properties: %w", err)
	}
	menuNode := &introspect.Node{
		Name: string(MenuPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       MenuInterface,
				Methods:    introspect.Methods(s.menu),
				Properties: menuProps.Introspection(MenuInterface),
				Signals: []introspect.Signal{
					{Name: "LayoutUpdated", Args: []introspect.Arg{
						{Name: "revision", Type: "u"},
						{Name: "parent", Type: "i"},
					}},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(menuNode), MenuPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export menu introspectable: %w", err)
	}

	s.publish = s.publishDBus
	return nil
}

func (s *Service) itemProperties() map[string]*prop.Prop {
	static := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitFalse}
	}
	return map[string]*prop.Prop{
		"Category":           static(ItemCategory),
		"Id":                 static(ItemID),
		"Title":              static(ItemTitle),
		"Status":             static("Active"),
		"WindowId":           static(int32(0)),
		"IconName":           static(IconName(s.current)),
		"IconThemePath":      static(""),
		"IconPixmap":         static([]Pixmap{}),
		"OverlayIconName":    static(""),
		"AttentionIconName":  static(""),
		"AttentionMovieName": static(""),
		"ToolTip":            static(NewToolTip(s.current)),
		"ItemIsMenu":         static(false),
		"Menu":               static(MenuPath),
	}
}

// publishDBus refreshes the icon and tooltip properties and notifies hosts.
func (s *Service) publishDBus(state mixer.State) {
	s.props.SetMust(ItemInterface, "IconName", IconName(state))
	s.props.SetMust(ItemInterface, "ToolTip", NewToolTip(state))

	for _, signal := range []string{"NewIcon", "NewToolTip"} {
		if err := s.conn.Emit(ItemPath, ItemInterface+"."+signal); err != nil {
			s.logger.Warn("failed to emit tray signal", "signal", signal, "error", err)
		}
	}
}

func itemSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "NewTitle"},
		{Name: "NewIcon"},
		{Name: "NewAttentionIcon"},
		{Name: "NewOverlayIcon"},
		{Name: "NewToolTip"},
		{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
	}
}

// item holds the StatusNotifierItem methods so that only they are exported.
// The messages they stand for are produced by intercept.
type item struct {
	s *Service
}

// Activate is a primary click at screen coordinates.
// D-Bus method: Activate(ii)
func (i item) Activate(x, y int32) *dbus.Error {
	return nil
}

// SecondaryActivate is a middle click and toggles mute.
// D-Bus method: SecondaryActivate(ii)
func (i item) SecondaryActivate(x, y int32) *dbus.Error {
	return nil
}

// ContextMenu is unused; hosts render the exported dbusmenu themselves.
// D-Bus method: ContextMenu(ii)
func (i item) ContextMenu(x, y int32) *dbus.Error {
	return nil
}

// Scroll is wheel movement over the icon. Only vertical scrolling is used.
// D-Bus method: Scroll(is)
func (i item) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

// ProvideXdgActivationToken is accepted and ignored.
// D-Bus method: ProvideXdgActivationToken(s)
func (i item) ProvideXdgActivationToken(token string) *dbus.Error {
	return nil
}
