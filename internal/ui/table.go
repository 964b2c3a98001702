package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/akashsiripuram/Nexus/internal/chatclient"
)

// RoomsView renders a relay snapshot as a table followed by totals.
func RoomsView(snap *chatclient.RoomsSnapshot) string {
	summary := MutedStyle.Render(fmt.Sprintf("%d connections, %d sessions, %d rooms",
		snap.Connections, snap.Sessions, len(snap.Rooms)))

	if len(snap.Rooms) == 0 {
		return MutedStyle.Render("No active rooms") + "\n" + summary
	}

	rows := make([][]string, 0, len(snap.Rooms))
	for i, room := range snap.Rooms {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			room.ID,
			fmt.Sprintf("%d", len(room.Members)),
			strings.Join(room.Members, ", "),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Room", "Online", "Members").
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

	return tbl.Render() + "\n" + summary
}

func RenderRooms(snap *chatclient.RoomsSnapshot) {
	fmt.Println(RoomsView(snap))
}
