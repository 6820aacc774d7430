package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName      = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"

	expireTimeout = 5000 // ms
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// urgency maps a level to the freedesktop urgency hint.
func (l Level) urgency() byte {
	switch l {
	case LevelInfo:
		return 0
	case LevelError:
		return 2
	default:
		return 1
	}
}

func (l Level) icon() string {
	switch l {
	case LevelInfo:
		return "dialog-information"
	case LevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// Notification is a desktop notification request.
type Notification struct {
	ReplacesID uint32
	Summary    string
	Body       string
	Level      Level
}

// Sender delivers notifications and returns the server assigned id.
type Sender interface {
	Send(n Notification) (uint32, error)
}

// DBusSender sends through org.freedesktop.Notifications on the session bus.
type DBusSender struct {
	conn *dbus.Conn
}

// NewDBusSender wraps the shared session bus connection.
func NewDBusSender() (*DBusSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusSender{conn: conn}, nil
}

// Send implements Sender.
func (s *DBusSender) Send(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(n.Level.urgency()),
		"category":      dbus.MakeVariant("device"),
		"transient":     dbus.MakeVariant(true),
		"desktop-entry": dbus.MakeVariant("volctl"),
	}

	var id uint32
	obj := s.conn.Object(notificationsName, notificationsPath)
	err := obj.Call(notificationsInterface+".Notify", 0,
		"volctl", n.ReplacesID, n.Level.icon(), n.Summary, n.Body,
		[]string{}, hints, int32(expireTimeout),
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// Notifier reports volctl's own failures as desktop notifications. The
// same key is not repeated within the minimum interval, and a repeat
// replaces the earlier notification.
type Notifier struct {
	mu          sync.Mutex
	logger      *slog.Logger
	sender      Sender
	enabled     bool
	minInterval time.Duration
	now         func() time.Time

	last map[string]time.Time
	ids  map[string]uint32
}

// NewNotifier creates a notifier. A nil sender disables it.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:      logger,
		sender:      sender,
		enabled:     sender != nil,
		minInterval: 5 * time.Second,
		now:         time.Now,
		last:        make(map[string]time.Time),
		ids:         make(map[string]uint32),
	}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled && n.sender != nil
}

// Notify sends a notification unless key was used too recently.
func (n *Notifier) Notify(key, summary, body string, level Level) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}
	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("notification rate-limited", "key", key)
		return
	}
	n.last[key] = now

	id, err := n.sender.Send(Notification{
		ReplacesID: n.ids[key],
		Summary:    summary,
		Body:       body,
		Level:      level,
	})
	if err != nil {
		n.logger.Debug("failed to send notification", "key", key, "error", err)
		return
	}
	n.ids[key] = id
}

// NotifyConfigError reports a config file that failed to reload.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Volume control configuration error",
		"Keeping the previous settings: "+err.Error(), LevelWarning)
}

// NotifyThemeError reports a theme that failed to load.
func (n *Notifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Volume control theme error", err.Error(), LevelWarning)
}

// NotifyMixerError reports that the audio server cannot be reached.
func (n *Notifier) NotifyMixerError(err error) {
	n.Notify("mixer-error", "Volume control cannot reach the sound server", err.Error(), LevelError)
}
