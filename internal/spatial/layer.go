package spatial

import (
	"context"
	"errors"
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"geoview/internal/cancel"
	"geoview/internal/geom"
	"geoview/internal/logger"
	"geoview/internal/metrics"
)

// Loader fills a layer with features the first time it is shown.
type Loader func(ctx context.Context, l *Layer) error

type LayerOption func(*Layer)

func WithLoader(fn Loader) LayerOption {
	return func(l *Layer) { l.loader = fn }
}

func WithFillPolygons(fill bool) LayerOption {
	return func(l *Layer) { l.fill = fill }
}

// Layer is an ordered set of features drawn in one colour. Features are
// only ever appended; the aggregate envelope never shrinks.
type Layer struct {
	id    string
	color color.Color

	mu       sync.RWMutex
	features []*Feature
	envelope geom.Envelope
	shown    bool
	fill     bool

	loader   Loader
	loadOnce sync.Once
	loadErr  error

	progress  atomic.Uint64 // float64 bits
	interrupt cancel.Flag
}

// NewLayer returns a hidden, empty layer.
func NewLayer(id string, c color.Color, opts ...LayerOption) *Layer {
	l := &Layer{id: id, color: c, envelope: geom.NewEnvelope()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) ID() string         { return l.id }
func (l *Layer) Color() color.Color { return l.color }

func (l *Layer) Hidden() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.shown
}

// SetShow toggles visibility. The loader runs the first time the layer is
// shown; hiding keeps loaded features.
func (l *Layer) SetShow(ctx context.Context, show bool) error {
	var err error
	if show && l.loader != nil {
		l.loadOnce.Do(func() {
			if l.loadErr = l.loader(ctx, l); l.loadErr != nil {
				logger.L().Error("layer_load_failed", "layer", l.id, "err", l.loadErr)
			}
		})
		err = l.loadErr
	}
	l.mu.Lock()
	l.shown = show
	l.mu.Unlock()
	return err
}

func (l *Layer) FillPolygons() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fill
}

func (l *Layer) SetFillPolygons(fill bool) {
	l.mu.Lock()
	l.fill = fill
	l.mu.Unlock()
}

// AddFeature appends a feature built from one data row and widens the
// layer envelope.
func (l *Layer) AddFeature(rowID int64, data []byte, isText bool) *Feature {
	f := NewFeature(rowID, data, isText)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.envelope = l.envelope.Extend(f.Envelope())
	l.features = append(l.features, f)
	return f
}

// Envelope is the geodetic union of all feature envelopes.
func (l *Layer) Envelope() geom.Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.envelope
}

// Features returns a snapshot of the features in insertion order.
func (l *Layer) Features() []*Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Feature(nil), l.features...)
}

func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.features)
}

// Render converts every feature to pixel space in order, publishing
// progress after each one. It stops at the first interruption and leaves
// progress short of 1.
func (l *Layer) Render(ctx context.Context, conv *Converter) error {
	start := time.Now()
	features := l.Features()
	if len(features) == 0 {
		l.setProgress(1)
		return nil
	}
	l.setProgress(0)
	for i, f := range features {
		if cancel.Stopped(ctx, &l.interrupt) {
			return l.interrupted(i, len(features))
		}
		if err := f.Render(ctx, &l.interrupt, conv); err != nil {
			if errors.Is(err, ErrInterrupted) {
				return l.interrupted(i, len(features))
			}
			return err
		}
		metrics.FeaturesRendered.WithLabelValues(l.id).Inc()
		l.setProgress(float64(i+1) / float64(len(features)))
	}
	metrics.RenderDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	logger.L().Debug("layer_rendered", "layer", l.id, "features", len(features), "took", time.Since(start))
	return nil
}

func (l *Layer) interrupted(done, total int) error {
	metrics.RendersInterrupted.WithLabelValues(l.id).Inc()
	logger.L().Debug("layer_render_interrupted", "layer", l.id, "done", done, "total", total)
	return ErrInterrupted
}

func (l *Layer) setProgress(p float64) { l.progress.Store(math.Float64bits(p)) }

// QueryRenderProgress returns the fraction of features rendered by the
// current or last render, in [0, 1].
func (l *Layer) QueryRenderProgress() float64 {
	return math.Float64frombits(l.progress.Load())
}

// FeatureWithin returns the first feature, in insertion order, hit by p.
func (l *Layer) FeatureWithin(ctx context.Context, p geom.Point) *Feature {
	for _, f := range l.Features() {
		if cancel.Stopped(ctx, &l.interrupt) {
			return nil
		}
		if f.Within(ctx, &l.interrupt, p) {
			metrics.HitTests.WithLabelValues("hit").Inc()
			return f
		}
	}
	metrics.HitTests.WithLabelValues("miss").Inc()
	return nil
}

// Interrupt stops the layer's running render, hit test or repaint and
// every later one until Resume.
func (l *Layer) Interrupt() {
	l.interrupt.Interrupt()
	for _, f := range l.Features() {
		f.Interrupt()
	}
}

// Resume clears a previous Interrupt on the layer and its features.
func (l *Layer) Resume() {
	l.interrupt.Reset()
	for _, f := range l.Features() {
		f.Resume()
	}
}

// Repaint draws every feature in the layer colour with a thin outline.
func (l *Layer) Repaint(ctx context.Context, s Surface, scale float64, clip geom.Envelope) error {
	fill := l.FillPolygons()
	s.Save()
	defer s.Restore()
	s.SetLineWidth(0.5)
	s.SetColor(l.color)
	for _, f := range l.Features() {
		if cancel.Stopped(ctx, &l.interrupt) {
			return ErrInterrupted
		}
		if err := f.Repaint(ctx, &l.interrupt, s, scale, clip, fill); err != nil {
			return err
		}
	}
	return nil
}
