package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoclock/internal/ipc"
	"pomoclock/internal/pomodoro"
)

type call struct {
	name string
	args interface{}
}

type fakeClient struct {
	status ipc.StatusData
	err    error
	calls  []call
}

func (c *fakeClient) Status(context.Context) (ipc.StatusData, error) {
	return c.status, c.err
}

func (c *fakeClient) Call(_ context.Context, name string, args interface{}) (ipc.StatusData, string, error) {
	c.calls = append(c.calls, call{name, args})
	return c.status, "ok " + name, c.err
}

func workStatus(running bool) ipc.StatusData {
	return ipc.StatusData{
		View: pomodoro.View{
			FormattedTime:    "12:30",
			PhaseLabel:       "Pomodoro 2",
			ProgressPercent:  50,
			Mode:             pomodoro.ModeWork,
			CycleCount:       2,
			RemainingSeconds: 750,
			Running:          running,
		},
		Durations: pomodoro.DefaultDurations(),
		Applied:   true,
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model that has received one status update.
func loaded(t *testing.T, c *fakeClient) Model {
	t.Helper()
	m := New(c, 500*time.Millisecond)
	next, _ := m.Update(m.fetch()())
	return next.(Model)
}

func TestView_Connecting(t *testing.T) {
	m := New(&fakeClient{}, time.Second)
	assert.Contains(t, m.View(), "Connecting")
}

func TestView_DaemonDown(t *testing.T) {
	c := &fakeClient{err: errors.New("daemon unavailable")}
	m := New(c, time.Second)
	next, _ := m.Update(m.fetch()())
	assert.Contains(t, next.(Model).View(), "Cannot reach daemon")
}

func TestView_Status(t *testing.T) {
	m := loaded(t, &fakeClient{status: workStatus(false)})
	out := m.View()

	assert.Contains(t, out, "Pomodoro 2")
	assert.Contains(t, out, "12:30")
	assert.Contains(t, out, "PAUSED")
	assert.Contains(t, out, "long 15:00")
}

func TestUpdate_SpaceToggles(t *testing.T) {
	c := &fakeClient{status: workStatus(true)}
	m := loaded(t, c)

	_, cmd := m.Update(key(" "))
	require.NotNil(t, cmd)
	msg := cmd()

	require.Len(t, c.calls, 1)
	assert.Equal(t, ipc.CmdToggle, c.calls[0].name)

	next, _ := m.Update(msg)
	assert.Contains(t, next.(Model).View(), "ok toggle")
	assert.NotContains(t, next.(Model).View(), "PAUSED")
}

func TestUpdate_ResetAndAdjust(t *testing.T) {
	c := &fakeClient{status: workStatus(false)}
	m := loaded(t, c)

	_, cmd := m.Update(key("r"))
	cmd()
	_, cmd = m.Update(key("+"))
	cmd()
	_, cmd = m.Update(key("-"))
	cmd()

	require.Len(t, c.calls, 3)
	assert.Equal(t, ipc.CmdReset, c.calls[0].name)
	assert.Equal(t, ipc.AdjustArgs{Mode: "Work", DeltaSeconds: 60}, c.calls[1].args)
	assert.Equal(t, ipc.AdjustArgs{Mode: "Work", DeltaSeconds: -60}, c.calls[2].args)
}

func TestUpdate_AdjustBeforeLoadIsIgnored(t *testing.T) {
	m := New(&fakeClient{}, time.Second)
	_, cmd := m.Update(key("+"))
	assert.Nil(t, cmd)
}

func TestUpdate_Quit(t *testing.T) {
	m := New(&fakeClient{}, time.Second)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestUpdate_ErrorKeepsLastStatus(t *testing.T) {
	c := &fakeClient{status: workStatus(true)}
	m := loaded(t, c)

	next, _ := m.Update(errMsg{errors.New("timeout")})
	out := next.(Model).View()
	assert.Contains(t, out, "12:30")
	assert.Contains(t, out, "timeout")
}

func TestUpdate_WindowResize(t *testing.T) {
	m := New(&fakeClient{}, time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 60, next.(Model).progress.Width)

	next, _ = m.Update(tea.WindowSizeMsg{Width: 8, Height: 40})
	assert.Equal(t, 10, next.(Model).progress.Width)
}
