package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"geoview/internal/canvas"
	"geoview/internal/geom"
	"geoview/internal/logger"
	"geoview/internal/projection"
	"geoview/internal/spatial"
)

// mercatorLimit keeps the viewport away from the poles where Mercator
// diverges.
const mercatorLimit = 85.0

type renderDoneMsg struct {
	seq int
	err error
}

type progressMsg struct{ seq int }

type layerShownMsg struct {
	entry *layerEntry
	show  bool
	err   error
}

func showLayer(e *layerEntry, show bool) tea.Cmd {
	return func() tea.Msg {
		err := e.layer.SetShow(context.Background(), show)
		return layerShownMsg{entry: e, show: show, err: err}
	}
}

func envelopeCenter(e geom.Envelope) geom.Point {
	return geom.Point{
		X: (e.TopLeft.X + e.BottomRight.X) / 2,
		Y: (e.TopLeft.Y + e.BottomRight.Y) / 2,
	}
}

// fitExtent zooms out to a padded copy of env, so a single point still gets
// a usable viewport.
func (m *Model) fitExtent(env geom.Envelope) {
	w := env.BottomRight.X - env.TopLeft.X
	h := env.TopLeft.Y - env.BottomRight.Y
	padX, padY := max(w*0.05, 0.5), max(h*0.05, 0.5)
	m.extent = geom.EnvelopeOf(
		env.TopLeft.X-padX, env.TopLeft.Y+padY,
		env.BottomRight.X+padX, env.BottomRight.Y-padY,
	)
	m.center = envelopeCenter(m.extent)
	m.zoom = 1
	m.fitted = true
}

// view derives the geodetic window shown in the map area from the extent,
// centre and zoom. The canvas has two dot columns and four dot rows per
// cell.
func (m Model) view() spatial.ProjectionView {
	halfW := (m.extent.BottomRight.X - m.extent.TopLeft.X) / 2 / m.zoom
	halfH := (m.extent.TopLeft.Y - m.extent.BottomRight.Y) / 2 / m.zoom
	v := spatial.ProjectionView{
		MinLon: m.center.X - halfW,
		MaxLon: m.center.X + halfW,
		MinLat: m.center.Y - halfH,
		MaxLat: m.center.Y + halfH,
		Width:  m.mapW * 2,
		Height: m.mapH * 4,
	}
	if m.kind == projection.Mercator {
		lim := max(mercatorLimit-halfH, 0)
		cy := max(-lim, min(lim, m.center.Y))
		v.MinLat = max(cy-halfH, -mercatorLimit)
		v.MaxLat = min(cy+halfH, mercatorLimit)
	}
	return v
}

func (m Model) visibleLayers() []*spatial.Layer {
	var out []*spatial.Layer
	for _, e := range m.layers {
		if !e.layer.Hidden() {
			out = append(out, e.layer)
		}
	}
	return out
}

// rerender reconfigures the converter for the current viewport and starts a
// background render of the visible layers. A running render is cancelled.
// dst switches the projected CRS when non-nil.
func (m *Model) rerender(dst *projection.CRS) (tea.Cmd, error) {
	if m.mapW <= 0 || m.mapH <= 0 {
		return nil, nil
	}
	if err := m.conv.ChangeProjection(m.view(), nil, dst); err != nil {
		return nil, err
	}
	if m.cancelRender != nil {
		m.cancelRender()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRender = cancel
	m.renderSeq++
	seq := m.renderSeq
	layers := m.visibleLayers()
	if len(layers) == 0 {
		m.paint()
		return nil, nil
	}
	m.rendering = true
	m.progress = 0
	conv := m.conv
	view := m.view()
	run := func() tea.Msg {
		start := time.Now()
		for _, l := range layers {
			if err := l.Render(ctx, conv); err != nil {
				return renderDoneMsg{seq: seq, err: err}
			}
		}
		logger.L().Debug("map_rendered", "layers", len(layers), "view", view, "took", time.Since(start))
		return renderDoneMsg{seq: seq}
	}
	return tea.Batch(run, tickProgress(seq)), nil
}

func tickProgress(seq int) tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg { return progressMsg{seq: seq} })
}

// renderProgress averages the progress of the visible layers.
func (m Model) renderProgress() float64 {
	layers := m.visibleLayers()
	if len(layers) == 0 {
		return 1
	}
	var sum float64
	for _, l := range layers {
		sum += l.QueryRenderProgress()
	}
	return sum / float64(len(layers))
}

func (m *Model) handleRenderDone(msg renderDoneMsg) {
	if msg.seq != m.renderSeq {
		return
	}
	m.rendering = false
	m.progress = m.renderProgress()
	switch {
	case errors.Is(msg.err, spatial.ErrInterrupted):
		// superseded by a newer render
	case msg.err != nil:
		m.status = "render error: " + msg.err.Error()
	}
	m.paint()
}

// paint rasterises the visible layers onto a braille canvas. Features that
// have not been rendered for the current view keep their previous shapes.
func (m *Model) paint() {
	if m.mapW <= 0 || m.mapH <= 0 {
		m.mapLines = nil
		return
	}
	b := canvas.NewBraille(m.mapW, m.mapH)
	w, h := b.Size()
	clip := geom.EnvelopeOf(0, 0, float64(w), float64(h))
	for _, l := range m.visibleLayers() {
		if err := l.Repaint(context.Background(), b, 1, clip); err != nil {
			logger.L().Warn("repaint_failed", "layer", l.ID(), "err", err)
		}
	}
	m.mapLines = b.Lines()
}

// hitTest returns the topmost visible feature under a map cell. Every dot
// of the cell is tested.
func (m Model) hitTest(cx, cy int) (*layerEntry, *spatial.Feature) {
	ctx := context.Background()
	for i := len(m.layers) - 1; i >= 0; i-- {
		e := m.layers[i]
		if e.layer.Hidden() {
			continue
		}
		for dy := 0; dy < 4; dy++ {
			for dx := 0; dx < 2; dx++ {
				p := geom.Point{X: float64(cx*2 + dx), Y: float64(cy*4 + dy)}
				if f := e.layer.FeatureWithin(ctx, p); f != nil {
					return e, f
				}
			}
		}
	}
	return nil, nil
}

// cellLatLon converts the centre of a map cell to geodetic coordinates.
func (m Model) cellLatLon(cx, cy int) (lat, lon float64, ok bool) {
	return m.conv.ToLatLon(cx*2+1, cy*4+2)
}
