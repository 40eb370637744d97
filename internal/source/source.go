// Package source reads feature rows from files and SQL tables.
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

var ErrUnsupportedFile = errors.New("source: unsupported file type")

// Row is one geometry record. Data is WKT when Text is set and WKB behind a
// 4-byte SRID prefix otherwise.
type Row struct {
	ID    int64
	Data  []byte
	Text  bool
	Props map[string]string
}

// Extensions lists the file extensions LoadFile understands.
var Extensions = []string{".wkt", ".geojson", ".json", ".kml", ".csv"}

// Supported reports whether LoadFile can read path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads rows from path, choosing the format by extension.
func LoadFile(path string) ([]Row, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Row
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wkt":
		rows, err = ParseWKT(data)
	case ".geojson", ".json":
		rows, err = ParseGeoJSON(data)
	case ".kml":
		rows, err = ParseKML(data)
	case ".csv":
		rows, err = ParseCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// sridWGS84 is written in front of WKB payloads.
const sridWGS84 = 4326

// EncodeWKB marshals g as little-endian WKB behind a 4-byte SRID.
func EncodeWKB(g orb.Geometry) ([]byte, error) {
	payload, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(out, sridWGS84)
	return append(out, payload...), nil
}
