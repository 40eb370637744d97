package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"geoview/internal/geom"
	"geoview/internal/projection"
	"geoview/internal/source"
)

func TestBuildAttributes(t *testing.T) {
	rows := []source.Row{
		{ID: 7, Props: map[string]string{"name": "Oslo", "pop": "0.7"}},
		{ID: 9, Props: map[string]string{"name": "Rome", "country": "IT"}},
		{ID: 10},
	}
	cols, out := buildAttributes(rows)
	if strings.Join(cols, ",") != "country,name,pop" {
		t.Fatalf("cols = %v", cols)
	}
	if len(out) != 3 {
		t.Fatalf("rows = %d", len(out))
	}
	if strings.Join(out[0], "|") != "7||Oslo|0.7" || strings.Join(out[1], "|") != "9|IT|Rome|" {
		t.Errorf("rows = %q", out)
	}
	if c, r := buildAttributes([]source.Row{{ID: 1}}); c != nil || r != nil {
		t.Errorf("no props: %v %v", c, r)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("POLYGON((0 0,1 1))", 8); got != "POLYGON…" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 8); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := New(Options{Projection: projection.Geodetic})
	if err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// drive runs cmd and feeds every resulting message back into the model,
// skipping progress ticks.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drive(t, m, c)
		}
	case progressMsg, nil:
	default:
		next, c := m.Update(msg)
		m = drive(t, next.(Model), c)
	}
	return m
}

func TestLayoutTracksSidebar(t *testing.T) {
	m := newTestModel(t)
	if m.mapX != 0 || m.mapY != headerHeight || m.mapW != 100 || m.mapH != 30-headerHeight-footerHeight {
		t.Fatalf("layout = %d,%d %dx%d", m.mapX, m.mapY, m.mapW, m.mapH)
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.mapX != sidebarWidth+1 || m.mapW != 100-sidebarWidth-1 {
		t.Errorf("sidebar layout = %d %d", m.mapX, m.mapW)
	}
}

func TestViewClampsMercator(t *testing.T) {
	m := newTestModel(t)
	m.kind = projection.Mercator
	m.center = geom.Point{X: 0, Y: 90}
	m.zoom = 4
	v := m.view()
	if v.MaxLat > mercatorLimit || v.MinLat >= v.MaxLat {
		t.Errorf("view = %v", v)
	}
	if v.Width != m.mapW*2 || v.Height != m.mapH*4 {
		t.Errorf("size = %dx%d", v.Width, v.Height)
	}
}

func TestPasteRenderAndInspect(t *testing.T) {
	m := newTestModel(t)
	m = drive(t, m, m.addPasted([]byte("POLYGON((-10 -10,10 -10,10 10,-10 10,-10 -10))\nPOINT(5 5)")))

	if m.scratch == nil || m.scratch.layer.Len() != 2 {
		t.Fatal("scratch layer not filled")
	}
	if m.rendering {
		t.Error("render still marked as running")
	}
	if m.progress != 1 {
		t.Errorf("progress = %v", m.progress)
	}
	if len(m.mapLines) != m.mapH {
		t.Fatalf("map lines = %d", len(m.mapLines))
	}
	drawn := false
	for _, l := range m.mapLines {
		for _, r := range l {
			if r > 0x2800 && r <= 0x28FF {
				drawn = true
			}
		}
	}
	if !drawn {
		t.Error("nothing painted")
	}

	// the map centre sits inside the square
	m.inspect(m.mapW/2, m.mapH/2)
	if !strings.Contains(m.inspectPopup, "row 1") || !strings.Contains(m.inspectPopup, "Polygon") {
		t.Errorf("popup = %q", m.inspectPopup)
	}
	m.inspect(0, m.mapH-1)
	if m.inspectPopup != "" || m.status != "nothing here" {
		t.Errorf("corner hit: %q %q", m.inspectPopup, m.status)
	}
}

func TestToggleLayerHides(t *testing.T) {
	m := newTestModel(t)
	m = drive(t, m, m.addPasted([]byte("POINT(0 0)")))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	m = drive(t, next.(Model), cmd)
	if !m.scratch.layer.Hidden() {
		t.Fatal("layer still shown")
	}
	if e, f := m.hitTest(m.mapW/2, m.mapH/2); e != nil || f != nil {
		t.Error("hidden layer was hit")
	}
}

func TestNextProjectionCycles(t *testing.T) {
	m := newTestModel(t)
	m = drive(t, m, m.addPasted([]byte("POLYGON((0 0,10 0,10 10,0 10,0 0))")))
	kinds := m.reg.Kinds()
	for _, want := range append(kinds[1:], kinds[0]) {
		m = drive(t, m, m.nextProjection())
		if m.kind != want || m.status != "projection: "+want.String() {
			t.Fatalf("switch to %v: kind %v, status %q", want, m.kind, m.status)
		}
		if e, f := m.hitTest(m.mapW/2, m.mapH/2); e == nil || f == nil {
			t.Errorf("%v: feature under the centre not hit", want)
		}
	}
}
