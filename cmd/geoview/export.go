package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"geoview/internal/canvas"
	"geoview/internal/config"
	"geoview/internal/geom"
	"geoview/internal/logger"
	"geoview/internal/projection"
	"geoview/internal/source"
	"geoview/internal/spatial"
)

const mercatorLimit = 85.0

var errNothingToExport = errors.New("export: no features loaded")

var (
	exportBg      = color.RGBA{R: 0x0B, G: 0x0F, B: 0x14, A: 0xFF}
	exportPalette = []color.RGBA{
		{R: 0x4F, G: 0xC3, B: 0xF7, A: 0xFF},
		{R: 0xFF, G: 0xB7, B: 0x4D, A: 0xFF},
		{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
		{R: 0xE5, G: 0x73, B: 0x73, A: 0xFF},
	}
)

func rowsLoader(fetch func(context.Context) ([]source.Row, error)) spatial.Loader {
	return func(ctx context.Context, l *spatial.Layer) error {
		rows, err := fetch(ctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			l.AddFeature(r.ID, r.Data, r.Text)
		}
		return nil
	}
}

// loadLayers builds one shown layer per file, plus the SQL layer when set.
// Unreadable inputs are logged and skipped.
func loadLayers(ctx context.Context, cfg config.Config, paths []string, sqlSrc *source.SQL) []*spatial.Layer {
	type input struct {
		id    string
		fetch func(context.Context) ([]source.Row, error)
	}
	var inputs []input
	if sqlSrc != nil {
		inputs = append(inputs, input{id: "sql", fetch: sqlSrc.Rows})
	}
	for _, p := range paths {
		inputs = append(inputs, input{id: filepath.Base(p), fetch: func(context.Context) ([]source.Row, error) {
			return source.LoadFile(p)
		}})
	}
	var layers []*spatial.Layer
	for i, in := range inputs {
		l := spatial.NewLayer(in.id, exportPalette[i%len(exportPalette)],
			spatial.WithLoader(rowsLoader(in.fetch)),
			spatial.WithFillPolygons(cfg.FillPolygons))
		if err := l.SetShow(ctx, true); err != nil {
			logger.L().Warn("export_layer_skipped", "layer", in.id, "err", err)
			continue
		}
		layers = append(layers, l)
	}
	return layers
}

// exportView frames env in a w by h image, padded so that a lone point is
// still drawable.
func exportView(env geom.Envelope, kind projection.Kind, w, h int) spatial.ProjectionView {
	padX := max((env.BottomRight.X-env.TopLeft.X)*0.05, 0.5)
	padY := max((env.TopLeft.Y-env.BottomRight.Y)*0.05, 0.5)
	v := spatial.ProjectionView{
		MinLon: max(env.TopLeft.X-padX, -180),
		MaxLon: min(env.BottomRight.X+padX, 180),
		MinLat: max(env.BottomRight.Y-padY, -90),
		MaxLat: min(env.TopLeft.Y+padY, 90),
		Width:  w,
		Height: h,
	}
	if kind == projection.Mercator {
		v.MinLat = min(max(v.MinLat, -mercatorLimit), mercatorLimit-2*padY)
		v.MaxLat = max(min(v.MaxLat, mercatorLimit), -mercatorLimit+2*padY)
	}
	return v
}

// exportPNG renders every input into cfg.ExportPath.
func exportPNG(ctx context.Context, cfg config.Config, paths []string, sqlSrc *source.SQL) error {
	layers := loadLayers(ctx, cfg, paths, sqlSrc)
	env := geom.NewEnvelope()
	for _, l := range layers {
		env = env.Extend(l.Envelope())
	}
	if !env.IsInit() {
		return errNothingToExport
	}

	reg := projection.Shared()
	geo, err := reg.Projection(projection.Geodetic)
	if err != nil {
		return err
	}
	dst, err := reg.Projection(cfg.Projection)
	if err != nil {
		return err
	}
	conv, err := spatial.NewConverter(geo, dst)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := conv.ChangeProjection(exportView(env, cfg.Projection, cfg.ExportW, cfg.ExportH), nil, nil); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, l := range layers {
		if err := l.Render(ctx, conv); err != nil {
			return fmt.Errorf("export: render %s: %w", l.ID(), err)
		}
	}

	img := canvas.NewPNG(cfg.ExportW, cfg.ExportH, exportBg)
	defer img.Close()
	clip := geom.EnvelopeOf(0, 0, float64(cfg.ExportW), float64(cfg.ExportH))
	for _, l := range layers {
		if err := l.Repaint(ctx, img, 1, clip); err != nil {
			return fmt.Errorf("export: paint %s: %w", l.ID(), err)
		}
	}
	return img.SavePNG(cfg.ExportPath)
}
