package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
)

func newTable(headers []string, rows [][]string) *table.Table {
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

// StatusView colours a room status.
func StatusView(s interview.Status) string {
	switch s {
	case interview.StatusActive:
		return SuccessStyle.Render(string(s))
	case interview.StatusWaiting:
		return WarningStyle.Render(string(s))
	default:
		return MutedStyle.Render(string(s))
	}
}

// RoomSummaryView renders the administrative view of a room.
func RoomSummaryView(sum interview.Summary) string {
	duration := "-"
	if sum.DurationMinutes > 0 {
		duration = fmt.Sprintf("%d min", sum.DurationMinutes)
	}
	createdBy := sum.CreatedBy
	if createdBy == "" {
		createdBy = "-"
	}

	rows := [][]string{
		{"Room", sum.ID},
		{"Status", StatusView(sum.Status)},
		{"Participants", fmt.Sprintf("%d/%d", sum.ParticipantCount, interview.Capacity)},
		{"Duration", duration},
		{"Created", sum.CreatedAt.Local().Format(time.DateTime)},
		{"Created by", createdBy},
	}
	return newTable([]string{"Field", "Value"}, rows).Render()
}

// ParticipantsView lists the seated participants of a snapshot.
func ParticipantsView(participants []interview.Participant, self string) string {
	if len(participants) == 0 {
		return MutedStyle.Render("Nobody is here yet")
	}

	var rows [][]string
	for i, p := range participants {
		name := p.Name
		if p.ConnectionID == self {
			name += " (you)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			string(p.Role),
			onOff(p.VideoEnabled),
			onOff(p.AudioEnabled),
		})
	}
	return newTable([]string{"#", "Name", "Role", "Video", "Audio"}, rows).Render()
}

// HealthView renders the coordinator's counters.
func HealthView(rooms, connections int) string {
	rows := [][]string{
		{"Rooms", strconv.Itoa(rooms)},
		{"Connections", strconv.Itoa(connections)},
	}
	return newTable([]string{"Metric", "Value"}, rows).Render()
}

// RoomBanner is printed once a participant is seated.
func RoomBanner(snap interview.RoomSnapshot, self interview.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Joined %s as %s (%s)\n\n",
		IconRoom, BoldStyle.Foreground(Primary).Render(snap.ID), self.Name, self.Role)
	b.WriteString(ParticipantsView(snap.Participants, self.ConnectionID))
	if snap.Code != "" {
		fmt.Fprintf(&b, "\n\n%s Shared code:\n%s", IconCode, snap.Code)
	}
	if snap.Notes != "" {
		fmt.Fprintf(&b, "\n\n%s Notes:\n%s", IconNotes, snap.Notes)
	}
	return BoxStyle.Render(b.String())
}

// ChatLine formats one transcript entry.
func ChatLine(m interview.Message, mine bool) string {
	style := PeerStyle
	if mine {
		style = SelfStyle
	}
	return fmt.Sprintf("%s %s %s",
		MutedStyle.Render(m.Timestamp.Local().Format(time.TimeOnly)),
		style.Render(m.SenderName+":"),
		m.Content)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
