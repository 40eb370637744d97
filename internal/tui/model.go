package tui

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"sync"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"geoview/internal/geom"
	"geoview/internal/projection"
	"geoview/internal/source"
	"geoview/internal/spatial"
)

// Options configures a new Model.
type Options struct {
	Registry   *projection.Registry
	Projection projection.Kind
	Fill       bool
	// Paths are opened as layers at start.
	Paths []string
	// SQL, when set, becomes a layer loaded on first show.
	SQL *source.SQL
}

// layerEntry is one map layer plus the rows it was built from, kept for the
// attribute table.
// Rows are filled by the loader goroutine.
type layerEntry struct {
	layer *spatial.Layer
	path  string

	mu   sync.Mutex
	rows []source.Row
}

func (e *layerEntry) addRows(rows []source.Row) {
	e.mu.Lock()
	e.rows = append(e.rows, rows...)
	e.mu.Unlock()
}

func (e *layerEntry) snapshot() []source.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]source.Row(nil), e.rows...)
}

func (e *layerEntry) row(id int64) (source.Row, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rows {
		if r.ID == id {
			return r, true
		}
	}
	return source.Row{}, false
}

var palette = []color.RGBA{
	{R: 0x4F, G: 0xC3, B: 0xF7, A: 0xFF},
	{R: 0xFF, G: 0xB7, B: 0x4D, A: 0xFF},
	{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
	{R: 0xE5, G: 0x73, B: 0x73, A: 0xFF},
	{R: 0xBA, G: 0x68, B: 0xC8, A: 0xFF},
	{R: 0xFF, G: 0xF1, B: 0x76, A: 0xFF},
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// File explorer
	cwd   string
	l     list.Model
	items []list.Item

	// Projection and viewport
	reg    *projection.Registry
	kind   projection.Kind
	conv   *spatial.Converter
	extent geom.Envelope // geodetic area shown at zoom 1
	center geom.Point    // lon, lat
	zoom   float64
	fitted bool

	// Layers, drawn in order
	layers   []*layerEntry
	scratch  *layerEntry
	selected int
	fill     bool
	nextRow  int64

	// map area in cells
	mapX     int
	mapY     int
	mapW     int
	mapH     int
	mapLines []string

	// background render
	renderSeq    int
	cancelRender context.CancelFunc
	rendering    bool
	progress     float64

	// paste mode
	pasteMode bool
	ta        textarea.Model

	inspectPopup string

	// hover state
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// attributes table
	showAttrs bool
	tbl       table.Model
}

var worldExtent = geom.EnvelopeOf(-180, 85, 180, -85)

// New builds the model and its converter. It fails when the requested
// projection cannot be configured.
func New(opts Options) (Model, error) {
	reg := opts.Registry
	if reg == nil {
		reg = projection.Shared()
	}
	geo, err := reg.Projection(projection.Geodetic)
	if err != nil {
		return Model{}, err
	}
	dst, err := reg.Projection(opts.Projection)
	if err != nil {
		return Model{}, err
	}
	conv, err := spatial.NewConverter(geo, dst)
	if err != nil {
		return Model{}, fmt.Errorf("projection %s: %w", opts.Projection, err)
	}

	m := Model{
		helpVisible: true,
		status:      "geoview ready",
		reg:         reg,
		kind:        opts.Projection,
		conv:        conv,
		extent:      worldExtent,
		zoom:        1.0,
		fill:        opts.Fill,
		selected:    -1,
	}
	m.center = envelopeCenter(m.extent)
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here, one geometry per line. Press Ctrl+S to add; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()

	if opts.SQL != nil {
		m.addLayer("sql", "", sqlLoader(*opts.SQL))
	}
	for _, p := range opts.Paths {
		m.openFile(p)
	}
	return m, nil
}

// Init shows every preconfigured layer.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.layers {
		cmds = append(cmds, showLayer(e, true))
	}
	return tea.Batch(cmds...)
}

func (m *Model) addLayer(id, path string, load func(*layerEntry) spatial.Loader) *layerEntry {
	e := &layerEntry{path: path}
	var opts []spatial.LayerOption
	opts = append(opts, spatial.WithFillPolygons(m.fill))
	if load != nil {
		opts = append(opts, spatial.WithLoader(load(e)))
	}
	e.layer = spatial.NewLayer(id, palette[len(m.layers)%len(palette)], opts...)
	m.layers = append(m.layers, e)
	m.selected = len(m.layers) - 1
	return e
}

// rowsLoader adds rows to the layer and keeps them on the entry.
func rowsLoader(fetch func(ctx context.Context) ([]source.Row, error)) func(*layerEntry) spatial.Loader {
	return func(e *layerEntry) spatial.Loader {
		return func(ctx context.Context, l *spatial.Layer) error {
			rows, err := fetch(ctx)
			if err != nil {
				return err
			}
			for _, r := range rows {
				l.AddFeature(r.ID, r.Data, r.Text)
			}
			e.addRows(rows)
			return nil
		}
	}
}

func fileLoader(path string) func(*layerEntry) spatial.Loader {
	return rowsLoader(func(context.Context) ([]source.Row, error) { return source.LoadFile(path) })
}

func sqlLoader(s source.SQL) func(*layerEntry) spatial.Loader {
	return rowsLoader(s.Rows)
}
