// Package canvas provides drawing surfaces for rendered layers: a braille
// raster for terminals and a PNG raster for export.
package canvas

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gogpu/gg"
)

// dot bits of a braille cell, indexed [row][column] within the 2x4 grid.
var dots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type subpath struct {
	pts    []gg.Point
	closed bool
}

type brailleState struct {
	ctm   gg.Matrix
	color color.Color
}

// Braille rasterises paths onto terminal cells, each cell holding a 2x4 dot
// grid. Device pixels are dots, so a cols x rows surface is 2*cols x 4*rows
// pixels. Each cell keeps the colour of the last dot drawn into it.
type Braille struct {
	cols, rows int
	mask       [][]uint8
	ink        [][]string

	cur   brailleState
	saved []brailleState
	path  []subpath

	styles map[string]lipgloss.Style
}

func NewBraille(cols, rows int) *Braille {
	b := &Braille{
		cols:   max(cols, 0),
		rows:   max(rows, 0),
		cur:    brailleState{ctm: gg.Identity(), color: color.White},
		styles: make(map[string]lipgloss.Style),
	}
	b.mask = make([][]uint8, b.rows)
	b.ink = make([][]string, b.rows)
	for i := range b.mask {
		b.mask[i] = make([]uint8, b.cols)
		b.ink[i] = make([]string, b.cols)
	}
	return b
}

// Size returns the surface size in dots.
func (b *Braille) Size() (int, int) { return b.cols * 2, b.rows * 4 }

// Set lights the dot at device pixel (x, y) in the current colour.
func (b *Braille) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= b.cols || cy >= b.rows {
		return
	}
	b.mask[cy][cx] |= dots[y%4][x%2]
	b.ink[cy][cx] = hex(b.cur.color)
}

func hex(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, bl, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, bl>>8)
}

func (b *Braille) Save() {
	b.saved = append(b.saved, b.cur)
}

func (b *Braille) Restore() {
	if n := len(b.saved); n > 0 {
		b.cur = b.saved[n-1]
		b.saved = b.saved[:n-1]
	}
}

func (b *Braille) Translate(x, y float64) { b.cur.ctm = b.cur.ctm.Multiply(gg.Translate(x, y)) }
func (b *Braille) Scale(sx, sy float64)   { b.cur.ctm = b.cur.ctm.Multiply(gg.Scale(sx, sy)) }
func (b *Braille) SetColor(c color.Color) { b.cur.color = c }

// SetLineWidth is accepted for interface parity; strokes are one dot wide.
func (b *Braille) SetLineWidth(float64) {}

func (b *Braille) NewPath() { b.path = b.path[:0] }

func (b *Braille) MoveTo(x, y float64) {
	b.path = append(b.path, subpath{pts: []gg.Point{b.cur.ctm.TransformPoint(gg.Pt(x, y))}})
}

func (b *Braille) LineTo(x, y float64) {
	if len(b.path) == 0 || b.path[len(b.path)-1].closed {
		b.MoveTo(x, y)
		return
	}
	sp := &b.path[len(b.path)-1]
	sp.pts = append(sp.pts, b.cur.ctm.TransformPoint(gg.Pt(x, y)))
}

func (b *Braille) ClosePath() {
	if len(b.path) > 0 {
		b.path[len(b.path)-1].closed = true
	}
}

func (b *Braille) Rectangle(x, y, w, h float64) {
	b.MoveTo(x, y)
	b.LineTo(x+w, y)
	b.LineTo(x+w, y+h)
	b.LineTo(x, y+h)
	b.ClosePath()
}

func (b *Braille) Fill() error {
	err := b.FillPreserve()
	b.NewPath()
	return err
}

// FillPreserve fills the path with the even-odd rule, sampling each dot row
// through its centre.
func (b *Braille) FillPreserve() error {
	width, height := b.Size()
	var xs []float64
	for row := 0; row < height; row++ {
		y := float64(row) + 0.5
		xs = xs[:0]
		for _, sp := range b.path {
			n := len(sp.pts)
			for i := 0; i < n; i++ {
				p, q := sp.pts[i], sp.pts[(i+1)%n]
				if (p.Y > y) == (q.Y > y) {
					continue
				}
				xs = append(xs, p.X+(y-p.Y)*(q.X-p.X)/(q.Y-p.Y))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			// clamp before converting, spans may reach far off-canvas
			lo := max(math.Ceil(xs[i]-0.5), 0)
			hi := min(math.Floor(xs[i+1]-0.5), float64(width-1))
			if !(lo <= hi) {
				continue
			}
			for x := int(lo); x <= int(hi); x++ {
				b.Set(x, row)
			}
		}
	}
	return nil
}

func (b *Braille) Stroke() error {
	for _, sp := range b.path {
		if len(sp.pts) == 1 {
			b.Set(round(sp.pts[0].X), round(sp.pts[0].Y))
			continue
		}
		for i := 1; i < len(sp.pts); i++ {
			b.line(sp.pts[i-1], sp.pts[i])
		}
		if sp.closed && len(sp.pts) > 2 {
			b.line(sp.pts[len(sp.pts)-1], sp.pts[0])
		}
	}
	b.NewPath()
	return nil
}

func round(v float64) int { return int(math.Floor(v + 0.5)) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// line plots a Bresenham segment between two device points, clipped to
// the canvas first.
func (b *Braille) line(p, q gg.Point) {
	width, height := b.Size()
	p, q, ok := clipSegment(p, q, float64(width-1), float64(height-1))
	if !ok {
		return
	}
	x0, y0 := round(p.X), round(p.Y)
	x1, y1 := round(q.X), round(q.Y)
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clipSegment clips p-q to [0, maxX] x [0, maxY] (Liang-Barsky). It reports
// false when nothing of the segment is left or a coordinate is not finite.
func clipSegment(p, q gg.Point, maxX, maxY float64) (gg.Point, gg.Point, bool) {
	for _, v := range [...]float64{p.X, p.Y, q.X, q.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, q, false
		}
	}
	dx, dy := q.X-p.X, q.Y-p.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, p.X},
		{dx, maxX - p.X},
		{-dy, p.Y},
		{dy, maxY - p.Y},
	}
	for _, e := range edges {
		pk, qk := e[0], e[1]
		if pk == 0 {
			if qk < 0 {
				return p, q, false
			}
			continue
		}
		r := qk / pk
		if pk < 0 {
			if r > t1 {
				return p, q, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return p, q, false
			}
			t1 = min(t1, r)
		}
	}
	return gg.Point{X: p.X + t0*dx, Y: p.Y + t0*dy},
		gg.Point{X: p.X + t1*dx, Y: p.Y + t1*dy}, true
}

// Clear blanks every cell and drops the current path.
func (b *Braille) Clear() {
	for y := range b.mask {
		clear(b.mask[y])
		clear(b.ink[y])
	}
	b.NewPath()
}

// Plain returns one string per cell row without colour.
func (b *Braille) Plain() []string {
	out := make([]string, b.rows)
	for y := range b.mask {
		row := make([]rune, b.cols)
		for x, m := range b.mask[y] {
			row[x] = glyph(m)
		}
		out[y] = string(row)
	}
	return out
}

// Lines returns one string per cell row, coloured with lipgloss. Runs of
// cells sharing a colour are styled together.
func (b *Braille) Lines() []string {
	out := make([]string, b.rows)
	for y := range b.mask {
		var sb strings.Builder
		var run []rune
		runInk := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runInk == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(b.style(runInk).Render(string(run)))
			}
			run = run[:0]
		}
		for x, m := range b.mask[y] {
			ink := ""
			if m != 0 {
				ink = b.ink[y][x]
			}
			if ink != runInk {
				flush()
				runInk = ink
			}
			run = append(run, glyph(m))
		}
		flush()
		out[y] = sb.String()
	}
	return out
}

func (b *Braille) style(ink string) lipgloss.Style {
	s, ok := b.styles[ink]
	if !ok {
		s = lipgloss.NewStyle().Foreground(lipgloss.Color(ink))
		b.styles[ink] = s
	}
	return s
}

func glyph(m uint8) rune {
	if m == 0 {
		return ' '
	}
	return rune(0x2800 + int(m))
}
