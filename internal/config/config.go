// Package config reads geoview settings from the environment, after loading
// an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"geoview/internal/logger"
	"geoview/internal/projection"
)

type Config struct {
	Projection   projection.Kind
	FillPolygons bool

	SQLDriver string
	SQLDSN    string
	SQLQuery  string

	MetricsAddr string
	ExportPath  string
	ExportW     int
	ExportH     int
}

const defaultQuery = "SELECT id, ST_AsText(geom) FROM features"

// LoadEnvFiles merges .env files into the process environment without
// overriding variables already set. Missing files are ignored.
func LoadEnvFiles(envFiles ...string) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
}

// LoggingEnabled reports whether the run should install a process logger:
// always for exports, and for interactive runs only with LOG_FILE, since the
// TUI owns the terminal.
func LoggingEnabled() bool {
	return os.Getenv("GEOVIEW_EXPORT") != "" || os.Getenv("LOG_FILE") != ""
}

// Load reads .env files and then the process environment. Bad values fall
// back to defaults with a warning on the process logger, so install it
// first.
func Load(envFiles ...string) Config {
	LoadEnvFiles(envFiles...)
	l := logger.L()

	c := Config{
		Projection: projection.Mercator,
		SQLDriver:  "postgres",
		SQLQuery:   defaultQuery,
		ExportW:    1024,
		ExportH:    512,
	}
	if v := os.Getenv("GEOVIEW_PROJECTION"); v != "" {
		k, err := projection.ParseKind(v)
		if err != nil {
			l.Warn("config_projection_invalid", "value", v, "err", err)
		} else {
			c.Projection = k
		}
	}
	if v := os.Getenv("GEOVIEW_FILL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			l.Warn("config_fill_invalid", "value", v)
		} else {
			c.FillPolygons = b
		}
	}
	if v := os.Getenv("GEOVIEW_SQL_DRIVER"); v != "" {
		c.SQLDriver = v
	}
	c.SQLDSN = os.Getenv("GEOVIEW_DSN")
	if v := strings.TrimSpace(os.Getenv("GEOVIEW_SQL_QUERY")); v != "" {
		c.SQLQuery = v
	}
	c.MetricsAddr = os.Getenv("GEOVIEW_METRICS_ADDR")
	c.ExportPath = os.Getenv("GEOVIEW_EXPORT")
	c.ExportW = positiveInt("GEOVIEW_EXPORT_WIDTH", c.ExportW)
	c.ExportH = positiveInt("GEOVIEW_EXPORT_HEIGHT", c.ExportH)
	return c
}

func positiveInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.L().Warn("config_int_invalid", "key", key, "value", v)
		return def
	}
	return n
}
