package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseCSV reads a table with latitude/longitude columns
// (lat|latitude|y and lon|lng|long|longitude|x, case-insensitive) into
// POINT rows. An integer "id" column is used as the row id; every other
// column lands in the row props.
func ParseCSV(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("csv: empty file")
	}
	header := recs[0]
	idxLat, idxLon, idxID := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		case "id":
			idxID = i
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("csv: latitude/longitude columns not found")
	}

	var rows []Row
	for n, rec := range recs[1:] {
		if idxLon >= len(rec) || idxLat >= len(rec) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(rec[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(rec[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		id := int64(n + 1)
		if idxID >= 0 && idxID < len(rec) {
			if v, err := strconv.ParseInt(strings.TrimSpace(rec[idxID]), 10, 64); err == nil {
				id = v
			}
		}
		props := make(map[string]string, len(rec))
		for i, v := range rec {
			if i == idxLat || i == idxLon || i >= len(header) {
				continue
			}
			props[header[i]] = v
		}
		rows = append(rows, Row{
			ID:    id,
			Data:  []byte(wkt.MarshalString(orb.Point{lon, lat})),
			Text:  true,
			Props: props,
		})
	}
	if len(rows) == 0 {
		return nil, errors.New("csv: no valid points parsed")
	}
	return rows, nil
}
