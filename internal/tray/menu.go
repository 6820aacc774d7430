package tray

import (
	"github.com/godbus/dbus/v5"
)

const (
	// MenuInterface is the dbusmenu interface name.
	MenuInterface = "com.canonical.dbusmenu"
	// MenuPath is the object path of the exported menu.
	MenuPath = dbus.ObjectPath("/MenuBar")

	menuVersion = uint32(3)
	rootID      = int32(0)
)

// MenuItem is one entry of the tray context menu.
type MenuItem struct {
	ID        int32
	Label     string
	IconName  string
	Separator bool
	Action    Kind
}

// QuitMenu is the default menu with a single Quit entry.
func QuitMenu() []MenuItem {
	return []MenuItem{
		{ID: 1, Label: "Quit", IconName: "application-exit", Action: KindQuit},
	}
}

// FullMenu is the extended menu with mixer and mute shortcuts.
func FullMenu() []MenuItem {
	return []MenuItem{
		{ID: 1, Label: "Mute", IconName: "audio-volume-muted", Action: KindMute},
		{ID: 2, Label: "Mixer", IconName: "multimedia-volume-control", Action: KindExternalMixer},
		{ID: 3, Label: "Preferences", IconName: "preferences-desktop", Action: KindPreferences},
		{ID: 4, Separator: true},
		{ID: 5, Label: "About", IconName: "help-about", Action: KindAbout},
		{ID: 6, Label: "Quit", IconName: "application-exit", Action: KindQuit},
	}
}

func (it MenuItem) properties() map[string]dbus.Variant {
	if it.Separator {
		return map[string]dbus.Variant{
			"type":    dbus.MakeVariant("separator"),
			"visible": dbus.MakeVariant(true),
		}
	}
	props := map[string]dbus.Variant{
		"label":   dbus.MakeVariant(it.Label),
		"enabled": dbus.MakeVariant(true),
		"visible": dbus.MakeVariant(true),
	}
	if it.IconName != "" {
		props["icon-name"] = dbus.MakeVariant(it.IconName)
	}
	return props
}

// menuLayout has the dbusmenu layout signature (ia{sv}av).
type menuLayout struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// menuItemProperties has the signature (ia{sv}).
type menuItemProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuEvent has the signature (isvu).
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

// menu implements com.canonical.dbusmenu for a fixed list of items.
// Its methods only answer the caller; clicks reach the channel through
// messages, which runs on the bus reader goroutine.
type menu struct {
	items    []MenuItem
	revision uint32
}

func newMenu(items []MenuItem) *menu {
	return &menu{items: items, revision: 1}
}

func (m *menu) find(id int32) (MenuItem, bool) {
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return MenuItem{}, false
}

func (m *menu) rootLayout(depth int32) menuLayout {
	root := menuLayout{
		ID: rootID,
		Properties: map[string]dbus.Variant{
			"children-display": dbus.MakeVariant("submenu"),
		},
		Children: []dbus.Variant{},
	}
	if depth == 0 {
		return root
	}
	for _, it := range m.items {
		root.Children = append(root.Children, dbus.MakeVariant(menuLayout{
			ID:         it.ID,
			Properties: it.properties(),
			Children:   []dbus.Variant{},
		}))
	}
	return root
}

// GetLayout returns the menu tree below parentID.
// D-Bus method: GetLayout(iias) -> u(ia{sv}av)
func (m *menu) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, menuLayout, *dbus.Error) {
	if parentID == rootID {
		return m.revision, m.rootLayout(recursionDepth), nil
	}
	it, ok := m.find(parentID)
	if !ok {
		return 0, menuLayout{}, dbus.MakeFailedError(errUnknownMenuItem)
	}
	return m.revision, menuLayout{ID: it.ID, Properties: it.properties(), Children: []dbus.Variant{}}, nil
}

// GetGroupProperties returns the properties of several items at once.
// D-Bus method: GetGroupProperties(aias) -> a(ia{sv})
func (m *menu) GetGroupProperties(ids []int32, propertyNames []string) ([]menuItemProperties, *dbus.Error) {
	out := []menuItemProperties{}
	if len(ids) == 0 {
		for _, it := range m.items {
			out = append(out, menuItemProperties{ID: it.ID, Properties: it.properties()})
		}
		return out, nil
	}
	for _, id := range ids {
		if it, ok := m.find(id); ok {
			out = append(out, menuItemProperties{ID: id, Properties: it.properties()})
		}
	}
	return out, nil
}

// GetProperty returns a single item property.
// D-Bus method: GetProperty(is) -> v
func (m *menu) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	it, ok := m.find(id)
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(errUnknownMenuItem)
	}
	v, ok := it.properties()[name]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(errUnknownMenuProperty)
	}
	return v, nil
}

// action returns the message for an event on item id, if it triggers one.
func (m *menu) action(id int32, eventID string) (Message, bool) {
	if eventID != "clicked" {
		return Message{}, false
	}
	it, ok := m.find(id)
	if !ok || it.Separator {
		return Message{}, false
	}
	return Simple(it.Action), true
}

// messages decodes the body of an Event or EventGroup call.
func (m *menu) messages(member string, body []any) []Message {
	var events []menuEvent
	switch member {
	case "Event":
		var ev menuEvent
		if err := dbus.Store(body, &ev.ID, &ev.EventID, &ev.Data, &ev.Timestamp); err != nil {
			return nil
		}
		events = append(events, ev)
	case "EventGroup":
		if err := dbus.Store(body, &events); err != nil {
			return nil
		}
	default:
		return nil
	}

	var out []Message
	for _, ev := range events {
		if msg, ok := m.action(ev.ID, ev.EventID); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Event delivers a user interaction with a menu item.
// D-Bus method: Event(isvu)
func (m *menu) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	return nil
}

// EventGroup delivers several events and returns the ids that were not found.
// D-Bus method: EventGroup(a(isvu)) -> ai
func (m *menu) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	notFound := []int32{}
	for _, ev := range events {
		if _, ok := m.find(ev.ID); !ok {
			notFound = append(notFound, ev.ID)
		}
	}
	return notFound, nil
}

// AboutToShow reports whether the layout must be refetched.
// D-Bus method: AboutToShow(i) -> b
func (m *menu) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

// AboutToShowGroup is the batched form of AboutToShow.
// D-Bus method: AboutToShowGroup(ai) -> aiai
func (m *menu) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	return []int32{}, []int32{}, nil
}
