package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func styledTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}

// TracksView lists local and remote tracks of a snapshot.
func TracksView(s session.Snapshot) string {
	if len(s.Tracks) == 0 && len(s.RemoteTracks) == 0 {
		return MutedStyle.Render("Camera preview will appear here")
	}

	var rows [][]string
	for _, t := range s.Tracks {
		rows = append(rows, []string{"local", kindLabel(t.Kind), truncate(t.Label, 32), ""})
	}
	for _, t := range s.RemoteTracks {
		recording := ""
		if t.Path != "" {
			recording = IconRecord + " " + truncate(t.Path, 40)
		}
		rows = append(rows, []string{IconPeer + " remote", kindLabel(t.Kind), t.Codec, recording})
	}
	return styledTable([]string{"Side", "Kind", "Source", "Recording"}, rows).Render()
}

// SessionSummaryView is printed when a command-line session ends.
func SessionSummaryView(s session.Snapshot) string {
	room := s.RoomID
	if room == "" {
		room = "-"
	}
	rows := [][]string{
		{"State", s.State.String()},
		{"Role", s.Role.String()},
		{"Room", room},
		{"Connection", s.Phase.String()},
		{"Local tracks", fmt.Sprintf("%d", len(s.Tracks))},
		{"Remote tracks", fmt.Sprintf("%d", len(s.RemoteTracks))},
		{"Candidates", fmt.Sprintf("%d", s.Candidates)},
	}
	return styledTable([]string{"Session", "Value"}, rows).Render()
}

func RenderSessionSummary(s session.Snapshot) {
	fmt.Fprintln(os.Stderr, SessionSummaryView(s))
}

func kindLabel(kind string) string {
	switch kind {
	case "video":
		return IconCamera + " video"
	case "audio":
		return IconMic + " audio"
	}
	return kind
}

// RoomInfo is the box shown to the host after a room is created.
type RoomInfo struct {
	RoomID string
	Role   session.Role
}

func NewRoomInfo(roomID string, role session.Role) *RoomInfo {
	return &RoomInfo{RoomID: roomID, Role: role}
}

func (r *RoomInfo) View() string {
	if r.Role == session.RoleJoiner {
		return InfoBoxStyle.Render(fmt.Sprintf("%s Joining room %s",
			IconRoom, BoldStyle.Foreground(Primary).Render(r.RoomID)))
	}

	content := fmt.Sprintf("%s Room Created!\n\n%s Room Code:  %s\n%s Share it with your desktop along with the offer",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconInfo,
	)
	return SuccessBoxStyle.Render(content)
}

// DevicesView renders the capture device list.
func DevicesView(devices []capture.Device) string {
	t := pretty.NewWriter()
	t.SetTitle("Capture devices")
	t.AppendHeader(pretty.Row{"#", "Kind", "Label", "Facing", "ID"})
	for i, d := range devices {
		facing := "-"
		if d.Facing != "" {
			facing = string(d.Facing)
		}
		t.AppendRow(pretty.Row{i + 1, d.Kind, d.Label, facing, truncate(d.ID, 36)})
	}
	if len(devices) == 0 {
		t.AppendRow(pretty.Row{"", "", "no devices found", "", ""})
	}
	t.SetStyle(pretty.StyleRounded)
	t.Style().Title.Colors = text.Colors{text.Bold, text.FgHiBlue}
	t.Style().Color.Header = text.Colors{text.Bold, text.FgHiBlue}
	return t.Render()
}

func RenderDevices(devices []capture.Device) {
	fmt.Println(DevicesView(devices))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
