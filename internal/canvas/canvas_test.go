package canvas

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gg"
)

func TestBrailleSet(t *testing.T) {
	b := NewBraille(2, 1)
	if w, h := b.Size(); w != 4 || h != 4 {
		t.Fatalf("Size = %d x %d", w, h)
	}
	b.Set(0, 0)
	b.Set(3, 3)
	b.Set(-1, 0)
	b.Set(4, 0)
	if got := b.Plain()[0]; got != "⠁⢀" {
		t.Errorf("row = %q", got)
	}
}

func TestBrailleStrokeAndFill(t *testing.T) {
	tests := []struct {
		name string
		draw func(b *Braille)
		want string
	}{
		{"horizontal stroke", func(b *Braille) {
			b.MoveTo(0, 0)
			b.LineTo(3, 0)
			_ = b.Stroke()
		}, "⠉⠉  "},
		{"filled square", func(b *Braille) {
			b.Rectangle(0, 0, 4, 4)
			_ = b.Fill()
		}, "⣿⣿  "},
		{"translated stroke restores", func(b *Braille) {
			b.Save()
			b.Translate(2, 0)
			b.MoveTo(0, 0)
			b.LineTo(0, 3)
			_ = b.Stroke()
			b.Restore()
			b.MoveTo(7, 0)
			b.LineTo(7, 0)
			_ = b.Stroke()
		}, " ⡇ ⠈"},
		{"scaled rectangle", func(b *Braille) {
			b.Scale(0.5, 0.5)
			b.Rectangle(0, 0, 8, 8)
			_ = b.Fill()
		}, "⣿⣿  "},
	}
	for _, tt := range tests {
		b := NewBraille(4, 1)
		tt.draw(b)
		if got := b.Plain()[0]; got != tt.want {
			t.Errorf("%s: row = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBrailleHugeCoordinates(t *testing.T) {
	b := NewBraille(100, 50)
	b.Rectangle(-1e9, -1e9, 2e9, 2e9)
	_ = b.Fill()
	full := strings.Repeat("⣿", 100)
	for i, row := range b.Plain() {
		if row != full {
			t.Fatalf("row %d = %q", i, row)
		}
	}

	b.Clear()
	b.MoveTo(-1e9, 1)
	b.LineTo(1e9, 1)
	_ = b.Stroke()
	if got := b.Plain()[0]; got != strings.Repeat("⠒", 100) {
		t.Errorf("stroke row = %q", got)
	}
	for _, row := range b.Plain()[1:] {
		if strings.TrimSpace(row) != "" {
			t.Fatalf("stroke leaked into %q", row)
		}
	}
}

func TestClipSegment(t *testing.T) {
	tests := []struct {
		name   string
		p, q   gg.Point
		ok     bool
		p2, q2 gg.Point
	}{
		{"inside", gg.Point{X: 1, Y: 1}, gg.Point{X: 5, Y: 2}, true, gg.Point{X: 1, Y: 1}, gg.Point{X: 5, Y: 2}},
		{"crossing", gg.Point{X: -10, Y: 5}, gg.Point{X: 20, Y: 5}, true, gg.Point{X: 0, Y: 5}, gg.Point{X: 9, Y: 5}},
		{"diagonal", gg.Point{X: -5, Y: -5}, gg.Point{X: 15, Y: 15}, true, gg.Point{X: 0, Y: 0}, gg.Point{X: 9, Y: 9}},
		{"outside", gg.Point{X: -10, Y: -1}, gg.Point{X: 20, Y: -1}, false, gg.Point{}, gg.Point{}},
		{"corner miss", gg.Point{X: -5, Y: 3}, gg.Point{X: 3, Y: -5}, false, gg.Point{}, gg.Point{}},
		{"nan", gg.Point{X: math.NaN(), Y: 0}, gg.Point{X: 1, Y: 1}, false, gg.Point{}, gg.Point{}},
	}
	for _, tt := range tests {
		p, q, ok := clipSegment(tt.p, tt.q, 9, 9)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v", tt.name, ok)
			continue
		}
		if ok && (!near(p, tt.p2) || !near(q, tt.q2)) {
			t.Errorf("%s: got %v %v, want %v %v", tt.name, p, q, tt.p2, tt.q2)
		}
	}
}

func near(a, b gg.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestBrailleClearAndLines(t *testing.T) {
	b := NewBraille(3, 2)
	b.SetColor(color.RGBA{R: 255, A: 255})
	b.Set(0, 0)
	lines := b.Lines()
	if len(lines) != 2 || !strings.Contains(lines[0], "⠁") {
		t.Errorf("lines = %q", lines)
	}
	b.Clear()
	for _, l := range b.Plain() {
		if strings.TrimSpace(l) != "" {
			t.Errorf("Clear left %q", l)
		}
	}
}

func TestPNGSurface(t *testing.T) {
	p := NewPNG(20, 20, color.White)
	defer p.Close()
	p.Save()
	p.SetColor(color.RGBA{R: 255, A: 255})
	p.NewPath()
	p.Rectangle(5, 5, 10, 10)
	if err := p.Fill(); err != nil {
		t.Fatal(err)
	}
	p.Restore()

	img := p.Image()
	r, g, _, _ := img.At(10, 10).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Errorf("inside pixel = %v", img.At(10, 10))
	}
	r, g, _, _ = img.At(1, 1).RGBA()
	if r>>8 < 200 || g>>8 < 200 {
		t.Errorf("background pixel = %v", img.At(1, 1))
	}

	out := filepath.Join(t.TempDir(), "map.png")
	if err := p.SavePNG(out); err != nil {
		t.Fatal(err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
}
