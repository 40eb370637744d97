package main

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"geoview/internal/config"
	"geoview/internal/geom"
	"geoview/internal/projection"
)

func TestExportPNG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "shapes.wkt")
	data := "POLYGON((0 0,10 0,10 10,0 10,0 0))\nPOINT(5 5)\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "map.png")
	cfg := config.Config{
		Projection:   projection.Geodetic,
		FillPolygons: true,
		ExportPath:   out,
		ExportW:      64,
		ExportH:      48,
	}
	if err := exportPNG(context.Background(), cfg, []string{in, filepath.Join(dir, "missing.wkt")}, nil); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("size = %v", b)
	}
}

func TestExportNothing(t *testing.T) {
	cfg := config.Config{Projection: projection.Geodetic, ExportPath: filepath.Join(t.TempDir(), "x.png"), ExportW: 8, ExportH: 8}
	err := exportPNG(context.Background(), cfg, nil, nil)
	if !errors.Is(err, errNothingToExport) {
		t.Fatalf("got %v", err)
	}
}

func TestExportViewPadsAndClamps(t *testing.T) {
	v := exportView(geom.EnvelopeOf(10, 89.9, 10, 89.9), projection.Mercator, 100, 50)
	if v.MinLon != 9.5 || v.MaxLon != 10.5 {
		t.Errorf("lon = %v..%v", v.MinLon, v.MaxLon)
	}
	if v.MinLat != 84 || v.MaxLat != 85 {
		t.Errorf("lat = %v..%v", v.MinLat, v.MaxLat)
	}
}
