package ui

import (
	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// Indicator is a colored dot with a label.
type Indicator struct {
	Label string
	Color lipgloss.Color
}

// Control is one key the user can press.
type Control struct {
	Key     string
	Label   string
	Enabled bool
}

// Presentation is everything the screen shows, derived from a snapshot.
type Presentation struct {
	Stream Indicator
	// Link is only meaningful while in a room.
	Link     Indicator
	Message  string
	Level    session.Level
	Title    string
	Controls []Control
	Help     string
}

// Present derives the visible state. It has no side effects.
func Present(s session.Snapshot) Presentation {
	p := Presentation{
		Stream:  streamIndicator(s),
		Message: s.Status.Text,
		Level:   s.Status.Level,
		Help:    help(s),
	}

	if s.InRoom() {
		p.Link = Indicator{Label: s.Phase.String(), Color: phaseColor(s.Phase)}
		p.Title = "Connected to Room"
		if s.Role == session.RoleHost {
			p.Title = "Host Controls"
		}
	}

	streaming := s.Streaming()
	canRoom := streaming && !s.InRoom()

	pasteLabel := "Paste Description"
	switch s.Role {
	case session.RoleHost:
		pasteLabel = "Paste Answer"
	case session.RoleJoiner:
		pasteLabel = "Paste Offer"
	}

	stopLabel := "Stop Camera"
	if s.InRoom() {
		stopLabel = "Disconnect"
	}

	p.Controls = []Control{
		{Key: "c", Label: "Start Camera", Enabled: !streaming && !s.PermissionBlocked && s.State != session.StateRequestingCapture},
		{Key: "h", Label: "Create Room", Enabled: canRoom},
		{Key: "j", Label: "Join Room", Enabled: canRoom},
		{Key: "p", Label: pasteLabel, Enabled: s.InRoom() && !s.RemoteApplied},
		{Key: "y", Label: "Copy", Enabled: s.LocalDescription != ""},
		{Key: "s", Label: stopLabel, Enabled: streaming || s.State == session.StateRequestingCapture},
		{Key: "r", Label: "Retry Camera", Enabled: s.PermissionBlocked},
		{Key: "q", Label: "Quit", Enabled: true},
	}
	return p
}

// Enabled reports whether key is an enabled control.
func (p Presentation) Enabled(key string) bool {
	for _, c := range p.Controls {
		if c.Key == key {
			return c.Enabled
		}
	}
	return false
}

func streamIndicator(s session.Snapshot) Indicator {
	switch {
	case s.Streaming() && !s.Visible:
		return Indicator{Label: "Paused", Color: Warning}
	case s.Streaming():
		return Indicator{Label: "Streaming", Color: Success}
	case s.PermissionBlocked:
		return Indicator{Label: "Camera blocked", Color: Error}
	default:
		return Indicator{Label: "Not streaming", Color: Idle}
	}
}

func phaseColor(p session.Phase) lipgloss.Color {
	switch p {
	case session.PhaseConnected:
		return Success
	case session.PhaseNegotiating, session.PhaseDisconnected:
		return Warning
	case session.PhaseFailed:
		return Error
	default:
		return Muted
	}
}

func help(s session.Snapshot) string {
	switch {
	case s.PermissionBlocked:
		return "Allow camera access in your system settings, then press r"
	case s.State == session.StateRequestingCapture:
		return "Waiting for the camera..."
	case s.State == session.StateIdle, s.State == session.StateError:
		return "Press c to start the camera"
	case s.State == session.StateCapturing:
		return "Press h to create a room or j to join one"
	case s.State == session.StateHosting:
		return "Share the room code and the offer below, then press p to paste the answer"
	case s.State == session.StateJoining:
		return "Press p to paste the host's offer"
	case s.Role == session.RoleJoiner:
		return "Send the answer below back to the host"
	default:
		return "Your desktop will connect and display the camera stream"
	}
}
