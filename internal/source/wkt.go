package source

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// ParseWKT reads one WKT geometry per line. Blank lines and lines starting
// with '#' are skipped. Rows are numbered by line.
func ParseWKT(data []byte) ([]Row, error) {
	var rows []Row
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := int64(0)
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		rows = append(rows, Row{ID: line, Data: []byte(s), Text: true})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("wkt: no geometries found")
	}
	return rows, nil
}
