package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"geoview/internal/source"
)

const (
	panStep  = 0.1
	zoomStep = 1.25
	maxZoom  = 4096
	minZoom  = 0.25
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.relayout()

	case layerShownMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("layer %s: %v", msg.entry.layer.ID(), msg.err)
			return m, nil
		}
		if msg.show {
			m.status = fmt.Sprintf("layer %s: %d features", msg.entry.layer.ID(), msg.entry.layer.Len())
			if env := msg.entry.layer.Envelope(); !m.fitted && env.IsInit() {
				m.fitExtent(env)
			}
		}
		return m, m.render()

	case renderDoneMsg:
		m.handleRenderDone(msg)
		return m, nil

	case progressMsg:
		if msg.seq != m.renderSeq || !m.rendering {
			return m, nil
		}
		m.progress = m.renderProgress()
		return m, tickProgress(msg.seq)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		// while filtering, the list owns the keyboard
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			return m.handlePaste(msg)
		}
		if m.showAttrs {
			switch msg.String() {
			case "esc", "a":
				m.showAttrs = false
				return m, nil
			case "ctrl+c", "q":
				return m, m.quit()
			}
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) quit() tea.Cmd {
	if m.cancelRender != nil {
		m.cancelRender()
	}
	return tea.Quit
}

// relayout recomputes the map area and rerenders when its size changed.
func (m *Model) relayout() tea.Cmd {
	w, h := m.mapW, m.mapH
	m.layout()
	if w == m.mapW && h == m.mapH {
		return nil
	}
	return m.render()
}

// render rerenders the current viewport, reporting failures in the status
// line.
func (m *Model) render() tea.Cmd {
	cmd, err := m.rerender(nil)
	if err != nil {
		m.status = "view error: " + err.Error()
		return nil
	}
	return cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, m.quit()
	case "esc":
		m.inspectPopup = ""
		return m, nil
	case "tab":
		m.showSidebar = !m.showSidebar
		return m, m.relayout()
	case "enter":
		if m.showSidebar {
			return m, m.openSelected()
		}
	case "h":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "p":
		m.pasteMode = true
		m.inspectPopup = ""
		m.ta.Reset()
		m.ta.Focus()
		return m, nil
	case "a":
		m.showAttrs = true
		m.refreshAttrs()
		return m, nil
	case "i":
		m.inspect(m.mapW/2, m.mapH/2)
		return m, nil
	case "f":
		m.fill = !m.fill
		for _, e := range m.layers {
			e.layer.SetFillPolygons(m.fill)
		}
		m.paint()
		m.status = fmt.Sprintf("fill polygons: %v", m.fill)
		return m, nil
	case "m":
		return m, m.nextProjection()
	case "+", "=":
		if m.zoom < maxZoom {
			m.zoom *= zoomStep
		}
		m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		return m, m.render()
	case "-", "_":
		if m.zoom > minZoom {
			m.zoom /= zoomStep
		}
		m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		return m, m.render()
	case "0":
		m.zoom = 1
		m.center = envelopeCenter(m.extent)
		m.status = "view reset"
		return m, m.render()
	case "left", "right", "up", "down":
		if m.showSidebar {
			// up/down move the file cursor while the sidebar is open
			if key == "up" || key == "down" {
				var cmd tea.Cmd
				m.l, cmd = m.l.Update(msg)
				return m, cmd
			}
		}
		m.pan(key)
		return m, m.render()
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return m, m.toggleLayer(int(key[0] - '1'))
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) pan(dir string) {
	v := m.view()
	dx := (v.MaxLon - v.MinLon) * panStep
	dy := (v.MaxLat - v.MinLat) * panStep
	switch dir {
	case "left":
		m.center.X -= dx
	case "right":
		m.center.X += dx
	case "up":
		m.center.Y += dy
	case "down":
		m.center.Y -= dy
	}
	m.center.Y = max(-90, min(90, m.center.Y))
}

func (m *Model) toggleLayer(i int) tea.Cmd {
	if i < 0 || i >= len(m.layers) {
		return nil
	}
	m.selected = i
	e := m.layers[i]
	return showLayer(e, e.layer.Hidden())
}

// nextProjection switches to the next registered projection. On failure
// the current projection stays in place.
func (m *Model) nextProjection() tea.Cmd {
	kinds := m.reg.Kinds()
	if len(kinds) == 0 {
		return nil
	}
	next := kinds[0]
	for i, k := range kinds {
		if k == m.kind {
			next = kinds[(i+1)%len(kinds)]
			break
		}
	}
	dst, err := m.reg.Projection(next)
	if err != nil {
		m.status = "projection error: " + err.Error()
		return nil
	}
	prev := m.kind
	m.kind = next
	cmd, err := m.rerender(dst)
	if err != nil {
		m.kind = prev
		m.status = fmt.Sprintf("projection %s: %v", next, err)
		return nil
	}
	m.status = "projection: " + next.String()
	return cmd
}

func (m Model) handlePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.ta.Blur()
		return m, nil
	case "ctrl+s":
		text := strings.TrimSpace(m.ta.Value())
		m.pasteMode = false
		m.ta.Blur()
		if text == "" {
			m.status = "paste: empty"
			return m, nil
		}
		return m, m.addPasted([]byte(text))
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

// addPasted appends WKT lines to the scratch layer, creating it on first
// use.
func (m *Model) addPasted(text []byte) tea.Cmd {
	rows, err := source.ParseWKT(text)
	if err != nil {
		m.status = "wkt error: " + err.Error()
		return nil
	}
	if m.scratch == nil {
		m.scratch = m.addLayer("scratch", "", nil)
	}
	e := m.scratch
	for i := range rows {
		m.nextRow++
		rows[i].ID = m.nextRow
		e.layer.AddFeature(rows[i].ID, rows[i].Data, rows[i].Text)
	}
	e.addRows(rows)
	if env := e.layer.Envelope(); env.IsInit() {
		m.fitExtent(env)
	}
	m.status = fmt.Sprintf("pasted %d geometries", len(rows))
	return showLayer(e, true)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cx, cy := msg.X-m.mapX, msg.Y-m.mapY
	inMap := cx >= 0 && cy >= 0 && cx < m.mapW && cy < m.mapH
	switch {
	case msg.Action == tea.MouseActionMotion:
		m.hoverHasGeo = false
		if inMap {
			m.hoverLat, m.hoverLon, m.hoverHasGeo = m.cellLatLon(cx, cy)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if inMap && !m.showAttrs && !m.pasteMode {
			m.inspect(cx, cy)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		if m.zoom < maxZoom {
			m.zoom *= zoomStep
			return m, m.render()
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		if m.zoom > minZoom {
			m.zoom /= zoomStep
			return m, m.render()
		}
	}
	return m, nil
}

// inspect opens the popup for the feature under a map cell.
func (m *Model) inspect(cx, cy int) {
	e, f := m.hitTest(cx, cy)
	if f == nil {
		m.inspectPopup = ""
		m.status = "nothing here"
		return
	}
	lat, lon, ok := m.cellLatLon(cx, cy)
	m.inspectPopup = describeFeature(e, f, lat, lon, ok)
	m.status = fmt.Sprintf("%s row %d  (esc to close)", e.layer.ID(), f.RowID())
}
