package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geoview/internal/projection"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
)

// layout places the map area. It is called from Update so that the render
// size and mouse offsets agree with what View draws.
func (m *Model) layout() {
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	sideW := 0
	if m.showSidebar {
		sideW = sidebarWidth + 1
		m.l.SetSize(sidebarWidth-2, max(1, contentHeight-len(m.layers)-3))
	}
	m.mapX = sideW
	m.mapY = headerHeight
	m.mapW = max(8, contentWidth-sideW)
	m.mapH = max(4, contentHeight)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	contentWidth := max(10, m.width)

	header := titleStyle.Render(" geoview ─ " + m.kind.String() + " ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	var mapView string
	switch {
	case m.showAttrs:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(m.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(m.mapH-2, 20))
		mapView = lipgloss.Place(m.mapW, m.mapH, lipgloss.Center, lipgloss.Center, boxStyle.Width(maxW).Render(m.tbl.View()))
	case m.inspectPopup != "":
		box := boxStyle.MaxWidth(min(60, m.mapW)).Render(m.inspectPopup)
		mapView = lipgloss.Place(m.mapW, m.mapH, lipgloss.Left, lipgloss.Center, box)
	case m.pasteMode:
		m.ta.SetWidth(m.mapW)
		m.ta.SetHeight(min(m.mapH, 12))
		mapView = m.ta.View()
	default:
		mapView = padLines(m.mapLines, m.mapH)
	}
	mapView = lipgloss.NewStyle().Width(m.mapW).Height(m.mapH).MaxHeight(m.mapH).Render(mapView)

	body := mapView
	if m.showSidebar {
		sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, m.renderLegend(), m.l.View()))
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	status := dimStyle.Render(" " + m.status + " ")
	if m.rendering {
		status += dimStyle.Render(fmt.Sprintf(" rendering %3.0f%% ", m.progress*100))
	}
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  %s %s  ", dms(m.hoverLat, projection.AxisLat), dms(m.hoverLon, projection.AxisLon)))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderHelp())
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderLegend lists layers with their toggle key, colour and state.
func (m Model) renderLegend() string {
	lines := []string{titleStyle.Render("Layers")}
	if len(m.layers) == 0 {
		lines = append(lines, dimStyle.Render(" none"))
	}
	for i, e := range m.layers {
		mark := " "
		if i == m.selected {
			mark = ">"
		}
		name := truncate(e.layer.ID(), sidebarWidth-10)
		line := fmt.Sprintf("%s%d %s %s", mark, i+1, swatch(e.layer.Color()), name)
		if e.layer.Hidden() {
			line = dimStyle.Render(fmt.Sprintf("%s%d ○ %s", mark, i+1, name))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"0 reset",
		"1-9 layers",
		"m proj",
		"f fill",
		"Tab files",
		"p paste",
		"a attrs",
		"i inspect",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
