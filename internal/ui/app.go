package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the session surface the interactive program drives.
type Controller interface {
	StartCapture(ctx context.Context) error
	Host(ctx context.Context) error
	Join(roomCode string) error
	ApplyRemote(ctx context.Context, text string) (string, error)
	Stop()
	SetVisible(visible bool)
	AcknowledgePermission()
	Snapshot() session.Snapshot
	Events() <-chan session.Event
}

type inputMode int

const (
	inputNone inputMode = iota
	inputRoom
	inputPaste
)

type eventMsg struct {
	ev session.Event
	ok bool
}

type opDoneMsg struct {
	op  string
	err error
}

type copiedMsg struct {
	err error
}

// App is the bubbletea model of the interactive program.
type App struct {
	ctrl Controller
	ctx  context.Context
	copy func(string) error

	snap     session.Snapshot
	mode     inputMode
	room     textinput.Model
	paste    textarea.Model
	spinner  spinner.Model
	busy     string
	notice   string
	width    int
	quitting bool
}

func NewApp(ctx context.Context, ctrl Controller) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	room := textinput.New()
	room.Placeholder = "Enter 6-digit code"
	room.CharLimit = 64 // room links are accepted too
	room.Width = 24

	paste := textarea.New()
	paste.Placeholder = "Paste the description here"
	paste.ShowLineNumbers = false
	paste.CharLimit = 0
	paste.SetHeight(6)
	paste.SetWidth(72)
	paste.KeyMap.InsertNewline.SetEnabled(false)

	return &App{
		ctrl:    ctrl,
		ctx:     ctx,
		copy:    clipboard.WriteAll,
		snap:    ctrl.Snapshot(),
		room:    room,
		paste:   paste,
		spinner: s,
		width:   80,
	}
}

// Run shows the interactive program until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller) error {
	p := tea.NewProgram(NewApp(ctx, ctrl),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.waitForEvent())
}

// waitForEvent returns a command that listens for session events
func (a *App) waitForEvent() tea.Cmd {
	events := a.ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if !msg.ok {
			return a, nil
		}
		a.snap = a.ctrl.Snapshot()
		return a, a.waitForEvent()

	case opDoneMsg:
		if a.busy == msg.op {
			a.busy = ""
		}
		a.snap = a.ctrl.Snapshot()
		return a, nil

	case copiedMsg:
		if msg.err != nil {
			a.notice = "Copy failed: " + msg.err.Error()
		} else {
			a.notice = "Copied to clipboard"
		}
		return a, nil

	case tea.FocusMsg:
		a.ctrl.SetVisible(true)
		a.snap = a.ctrl.Snapshot()
		return a, nil

	case tea.BlurMsg:
		a.ctrl.SetVisible(false)
		a.snap = a.ctrl.Snapshot()
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.paste.SetWidth(max(20, min(100, msg.Width-8)))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.quitting = true
			return a, tea.Quit
		}
		if a.mode != inputNone {
			return a.updateInput(msg)
		}
		return a.handleKey(msg.String())
	}

	return a, nil
}

func (a *App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeInput()
		return a, nil

	case "enter":
		mode := a.mode
		room, text := a.room.Value(), a.paste.Value()
		a.closeInput()
		if mode == inputRoom {
			return a, a.run("Joining room", func(context.Context) error {
				return a.ctrl.Join(room)
			})
		}
		return a, a.run("Applying description", func(ctx context.Context) error {
			_, err := a.ctrl.ApplyRemote(ctx, text)
			return err
		})
	}

	var cmd tea.Cmd
	if a.mode == inputRoom {
		a.room, cmd = a.room.Update(msg)
	} else {
		a.paste, cmd = a.paste.Update(msg)
	}
	return a, cmd
}

func (a *App) closeInput() {
	a.mode = inputNone
	a.room.Blur()
	a.paste.Blur()
}

func (a *App) handleKey(key string) (tea.Model, tea.Cmd) {
	if !Present(a.snap).Enabled(key) {
		return a, nil
	}
	// Stop and quit must work while an operation is blocked.
	if a.busy != "" && key != "s" && key != "q" {
		return a, nil
	}
	a.notice = ""

	switch key {
	case "c":
		return a, a.run("Opening camera", a.ctrl.StartCapture)

	case "h":
		return a, a.run("Creating room", a.ctrl.Host)

	case "j":
		a.mode = inputRoom
		a.room.Reset()
		return a, a.room.Focus()

	case "p":
		a.mode = inputPaste
		a.paste.Reset()
		return a, a.paste.Focus()

	case "y":
		text, copyFn := a.snap.LocalDescription, a.copy
		return a, func() tea.Msg { return copiedMsg{err: copyFn(text)} }

	case "s":
		return a, func() tea.Msg {
			a.ctrl.Stop()
			return opDoneMsg{op: "stop"}
		}

	case "r":
		a.ctrl.AcknowledgePermission()
		a.snap = a.ctrl.Snapshot()
		return a, a.run("Opening camera", a.ctrl.StartCapture)

	case "q":
		a.quitting = true
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) run(label string, op func(context.Context) error) tea.Cmd {
	a.busy = label
	ctx := a.ctx
	return func() tea.Msg {
		return opDoneMsg{op: label, err: op(ctx)}
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	p := Present(a.snap)
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s camdrop - Camera Stream", IconCamera)))
	b.WriteString("\n")

	b.WriteString(indicatorView(p.Stream))
	if p.Link.Label != "" {
		b.WriteString("   " + indicatorView(Indicator{Label: "connection " + p.Link.Label, Color: p.Link.Color}))
	}
	b.WriteString("\n\n")

	if p.Message != "" {
		b.WriteString(messageView(p.Message, p.Level))
		b.WriteString("\n")
	}
	if a.busy != "" {
		b.WriteString(fmt.Sprintf("%s %s...\n", a.spinner.View(), a.busy))
	}
	if a.notice != "" {
		b.WriteString(MutedStyle.Render(a.notice) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(TracksView(a.snap))
	b.WriteString("\n\n")

	if p.Title != "" {
		b.WriteString(BoldStyle.Render(p.Title) + "\n")
		b.WriteString(NewRoomInfo(a.snap.RoomID, a.snap.Role).View())
		b.WriteString("\n\n")
	}

	if d := a.snap.LocalDescription; d != "" {
		label := "Offer (copy it to the other device)"
		if a.snap.Role == session.RoleJoiner {
			label = "Answer (send it back to the host)"
		}
		b.WriteString(MutedStyle.Render(label) + "\n")
		b.WriteString(DescriptionStyle.Width(max(20, a.width-8)).Render(d))
		b.WriteString("\n\n")
	}

	switch a.mode {
	case inputRoom:
		b.WriteString("Room code: " + a.room.View() + "\n")
		b.WriteString(MutedStyle.Render("enter to join, esc to cancel") + "\n\n")
	case inputPaste:
		b.WriteString(a.paste.View() + "\n")
		b.WriteString(MutedStyle.Render("enter to apply, esc to cancel") + "\n\n")
	}

	b.WriteString(controlsView(p.Controls))
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(p.Help))

	return ContainerStyle.Render(b.String())
}

func indicatorView(i Indicator) string {
	return lipgloss.NewStyle().Foreground(i.Color).Render(IconDot) + " " + i.Label
}

func messageView(msg string, level session.Level) string {
	switch level {
	case session.LevelError:
		return ErrorBoxStyle.Render(msg)
	case session.LevelSuccess:
		return SuccessStyle.Render(IconSuccess + " " + msg)
	default:
		return InfoStyle.Render(msg)
	}
}

func controlsView(controls []Control) string {
	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.Enabled {
			parts = append(parts, KeyStyle.Render(c.Key)+" "+c.Label)
		} else {
			parts = append(parts, DisabledKeyStyle.Render(c.Key+" "+c.Label))
		}
	}
	return strings.Join(parts, "  ")
}
