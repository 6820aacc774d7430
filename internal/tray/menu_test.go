package tray

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childLabels(t *testing.T, layout menuLayout) []string {
	t.Helper()
	var labels []string
	for _, child := range layout.Children {
		l, ok := child.Value().(menuLayout)
		require.True(t, ok)
		if typ, ok := l.Properties["type"]; ok && typ.Value() == "separator" {
			labels = append(labels, "-")
			continue
		}
		labels = append(labels, l.Properties["label"].Value().(string))
	}
	return labels
}

func TestMenu_QuitOnlyLayout(t *testing.T) {
	m := newMenu(QuitMenu())

	rev, layout, dErr := m.GetLayout(0, -1, nil)
	require.Nil(t, dErr)
	assert.Equal(t, uint32(1), rev)
	assert.Equal(t, int32(0), layout.ID)
	assert.Equal(t, "submenu", layout.Properties["children-display"].Value())
	assert.Equal(t, []string{"Quit"}, childLabels(t, layout))
}

func TestMenu_FullLayout(t *testing.T) {
	m := newMenu(FullMenu())

	_, layout, dErr := m.GetLayout(0, -1, nil)
	require.Nil(t, dErr)
	assert.Equal(t, []string{"Mute", "Mixer", "Preferences", "-", "About", "Quit"}, childLabels(t, layout))
}

func TestMenu_LayoutDepthZeroHasNoChildren(t *testing.T) {
	m := newMenu(FullMenu())

	_, layout, dErr := m.GetLayout(0, 0, nil)
	require.Nil(t, dErr)
	assert.Empty(t, layout.Children)
}

func TestMenu_LayoutUnknownParent(t *testing.T) {
	m := newMenu(QuitMenu())

	_, _, dErr := m.GetLayout(99, -1, nil)
	assert.NotNil(t, dErr)
}

func TestMenu_EventClickedEmitsAction(t *testing.T) {
	tests := []struct {
		id   int32
		want Kind
	}{
		{1, KindMute},
		{2, KindExternalMixer},
		{3, KindPreferences},
		{5, KindAbout},
		{6, KindQuit},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			m := newMenu(FullMenu())

			got := m.messages("Event", []any{tt.id, "clicked", dbus.MakeVariant(""), uint32(0)})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Kind)
			assert.Nil(t, m.Event(tt.id, "clicked", dbus.MakeVariant(""), 0))
		})
	}
}

func TestMenu_EventIgnoresHoverAndSeparator(t *testing.T) {
	m := newMenu(FullMenu())

	assert.Empty(t, m.messages("Event", []any{int32(6), "hovered", dbus.MakeVariant(""), uint32(0)}))
	assert.Empty(t, m.messages("Event", []any{int32(4), "clicked", dbus.MakeVariant(""), uint32(0)}))
	assert.Empty(t, m.messages("Event", []any{int32(42), "clicked", dbus.MakeVariant(""), uint32(0)}))
	assert.Empty(t, m.messages("Event", []any{"not", "an", "event"}))
	assert.Empty(t, m.messages("AboutToShow", []any{int32(6)}))
}

func TestMenu_EventGroup(t *testing.T) {
	m := newMenu(QuitMenu())

	missing, dErr := m.EventGroup([]menuEvent{
		{ID: 1, EventID: "clicked", Data: dbus.MakeVariant("")},
		{ID: 7, EventID: "clicked", Data: dbus.MakeVariant("")},
	})
	require.Nil(t, dErr)
	assert.Equal(t, []int32{7}, missing)

	body := []any{[][]any{
		{int32(1), "clicked", dbus.MakeVariant(""), uint32(0)},
		{int32(7), "clicked", dbus.MakeVariant(""), uint32(0)},
		{int32(1), "hovered", dbus.MakeVariant(""), uint32(0)},
	}}
	got := m.messages("EventGroup", body)
	require.Len(t, got, 1)
	assert.Equal(t, KindQuit, got[0].Kind)
}

func TestMenu_Properties(t *testing.T) {
	m := newMenu(FullMenu())

	v, dErr := m.GetProperty(6, "label")
	require.Nil(t, dErr)
	assert.Equal(t, "Quit", v.Value())

	v, dErr = m.GetProperty(4, "type")
	require.Nil(t, dErr)
	assert.Equal(t, "separator", v.Value())

	_, dErr = m.GetProperty(4, "label")
	assert.NotNil(t, dErr)

	all, dErr := m.GetGroupProperties(nil, nil)
	require.Nil(t, dErr)
	assert.Len(t, all, 6)

	some, dErr := m.GetGroupProperties([]int32{1, 99}, nil)
	require.Nil(t, dErr)
	require.Len(t, some, 1)
	assert.Equal(t, int32(1), some[0].ID)
}

func TestService_MenuQuitReachesChannel(t *testing.T) {
	ch := NewChannel()
	s := NewService(ch, Options{FullMenu: false}, nil)

	s.intercept(methodCall(MenuPath, MenuInterface, "Event",
		int32(1), "clicked", dbus.MakeVariant(""), uint32(time.Now().Unix())))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.pump(ctx)

	msg, err := receiveWithin(t, ch, time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindQuit, msg.Kind)
}
