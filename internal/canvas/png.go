package canvas

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"
)

type paintState struct {
	color color.Color
	width float64
}

// PNG is a raster surface backed by a gg context. gg's Push/Pop only cover
// the transform and clip, so colour and line width are stacked here.
type PNG struct {
	dc    *gg.Context
	cur   paintState
	saved []paintState
}

// NewPNG returns a width x height surface filled with bg.
func NewPNG(width, height int, bg color.Color) *PNG {
	p := &PNG{dc: gg.NewContext(width, height), cur: paintState{color: color.Black, width: 1}}
	p.dc.SetColor(bg)
	p.dc.DrawRectangle(0, 0, float64(width), float64(height))
	_ = p.dc.Fill()
	p.dc.SetColor(p.cur.color)
	return p
}

func (p *PNG) Size() (int, int) { return p.dc.Width(), p.dc.Height() }

func (p *PNG) Save() {
	p.saved = append(p.saved, p.cur)
	p.dc.Push()
}

func (p *PNG) Restore() {
	if n := len(p.saved); n > 0 {
		p.cur = p.saved[n-1]
		p.saved = p.saved[:n-1]
		p.dc.SetColor(p.cur.color)
		p.dc.SetLineWidth(p.cur.width)
	}
	p.dc.Pop()
}

func (p *PNG) Translate(x, y float64) { p.dc.Translate(x, y) }
func (p *PNG) Scale(sx, sy float64)   { p.dc.Scale(sx, sy) }

func (p *PNG) SetColor(c color.Color) {
	p.cur.color = c
	p.dc.SetColor(c)
}

func (p *PNG) SetLineWidth(w float64) {
	p.cur.width = w
	p.dc.SetLineWidth(w)
}

func (p *PNG) NewPath()                     { p.dc.ClearPath() }
func (p *PNG) MoveTo(x, y float64)          { p.dc.MoveTo(x, y) }
func (p *PNG) LineTo(x, y float64)          { p.dc.LineTo(x, y) }
func (p *PNG) ClosePath()                   { p.dc.ClosePath() }
func (p *PNG) Rectangle(x, y, w, h float64) { p.dc.DrawRectangle(x, y, w, h) }
func (p *PNG) Fill() error                  { return p.dc.Fill() }
func (p *PNG) FillPreserve() error          { return p.dc.FillPreserve() }
func (p *PNG) Stroke() error                { return p.dc.Stroke() }

func (p *PNG) Image() image.Image { return p.dc.Image() }

// SavePNG writes the surface to path.
func (p *PNG) SavePNG(path string) error { return p.dc.SavePNG(path) }

func (p *PNG) Close() error { return p.dc.Close() }
