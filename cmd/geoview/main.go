package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/lib/pq"

	"geoview/internal/config"
	"geoview/internal/logger"
	"geoview/internal/metrics"
	"geoview/internal/projection"
	"geoview/internal/source"
	"geoview/internal/tui"
)

func main() {
	config.LoadEnvFiles()
	if config.LoggingEnabled() {
		if _, err := logger.Setup(); err != nil {
			log.Fatal(err)
		}
	}
	cfg := config.Load()
	l := logger.L()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	ctx := context.Background()
	var sqlSrc *source.SQL
	if cfg.SQLDSN != "" {
		db, err := source.Open(ctx, cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			l.Error("sql_open_failed", "driver", cfg.SQLDriver, "err", err)
			log.Fatal(err)
		}
		defer db.Close()
		sqlSrc = &source.SQL{DB: db, Query: cfg.SQLQuery}
	}
	paths := os.Args[1:]

	if cfg.ExportPath != "" {
		start := time.Now()
		if err := exportPNG(ctx, cfg, paths, sqlSrc); err != nil {
			l.Error("export_failed", "path", cfg.ExportPath, "err", err)
			os.Exit(1)
		}
		l.Info("export_done", "path", cfg.ExportPath, "took", time.Since(start))
		return
	}

	m, err := tui.New(tui.Options{
		Registry:   projection.Shared(),
		Projection: cfg.Projection,
		Fill:       cfg.FillPolygons,
		Paths:      paths,
		SQL:        sqlSrc,
	})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.Fatal(err)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.L().Info("metrics_listen", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().Error("metrics_server_failed", "err", err)
	}
}
