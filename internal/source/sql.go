package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"geoview/internal/logger"
)

// SQL reads rows from a query returning (id, geometry). The geometry column
// holds WKT unless Binary is set, in which case it holds SRID-prefixed WKB.
type SQL struct {
	DB     *sql.DB
	Query  string
	Binary bool
}

// Open connects with driverName and checks the connection.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Rows runs the query and collects every row. NULL geometries are skipped.
func (s SQL) Rows(ctx context.Context) ([]Row, error) {
	start := time.Now()
	rs, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("source: query: %w", err)
	}
	defer rs.Close()

	var out []Row
	skipped := 0
	for rs.Next() {
		var (
			id   int64
			data []byte
		)
		if err := rs.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("source: scan: %w", err)
		}
		if data == nil {
			skipped++
			continue
		}
		out = append(out, Row{ID: id, Data: data, Text: !s.Binary})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("source: rows: %w", err)
	}
	logger.L().Info("sql_rows_loaded", "rows", len(out), "skipped", skipped, "took", time.Since(start))
	return out, nil
}
