package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

func TestParseWKT(t *testing.T) {
	data := []byte("# capitals\nPOINT(2.35 48.85)\n\n  LINESTRING(0 0,1 1)  \n")
	rows, err := ParseWKT(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].ID != 2 || string(rows[0].Data) != "POINT(2.35 48.85)" || !rows[0].Text {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if string(rows[1].Data) != "LINESTRING(0 0,1 1)" || rows[1].ID != 4 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if _, err := ParseWKT([]byte("\n# nothing\n")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestParseGeoJSON(t *testing.T) {
	fc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":42,"properties":{"name":"Paris","pop":2.1},"geometry":{"type":"Point","coordinates":[2.35,48.85]}},
		{"type":"Feature","properties":null,"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}
	]}`
	rows, err := ParseGeoJSON([]byte(fc))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].ID != 42 || rows[0].Props["name"] != "Paris" || rows[0].Props["pop"] != "2.1" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].ID != 2 || rows[1].Text {
		t.Errorf("row 1 = %+v", rows[1])
	}
	g, err := wkb.Unmarshal(rows[0].Data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := g.(orb.Point); !ok || p != (orb.Point{2.35, 48.85}) {
		t.Errorf("decoded %v", g)
	}

	bare, err := ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`))
	if err != nil || len(bare) != 1 || bare[0].ID != 1 {
		t.Errorf("bare geometry: %v, %v", bare, err)
	}
	if _, err := ParseGeoJSON([]byte(`{"features":[]}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestParseKML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<kml><Document>
  <Placemark><name>Home</name><Point><coordinates>-0.12,51.5,0</coordinates></Point></Placemark>
  <Folder><Placemark><name>Pair</name><Point><coordinates>1,2 3,4</coordinates></Point></Placemark></Folder>
  <Placemark><name>No point</name></Placemark>
</Document></kml>`
	rows, err := ParseKML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if string(rows[0].Data) != "POINT(-0.12 51.5)" || rows[0].Props["name"] != "Home" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if string(rows[1].Data) != "MULTIPOINT((1 2),(3 4))" {
		t.Errorf("row 1 data = %s", rows[1].Data)
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("id,Name,Latitude,Longitude\n7,Oslo,59.91,10.75\n,bad,north,east\n,Rome,41.9,12.5\n")
	rows, err := ParseCSV(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].ID != 7 || string(rows[0].Data) != "POINT(10.75 59.91)" || rows[0].Props["Name"] != "Oslo" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].ID != 3 {
		t.Errorf("row 1 id = %d", rows[1].ID)
	}
	if _, err := ParseCSV([]byte("a,b\n1,2\n")); err == nil {
		t.Error("expected missing column error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cities.WKT")
	if err := os.WriteFile(p, []byte("POINT(1 2)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := LoadFile(p)
	if err != nil || len(rows) != 1 {
		t.Fatalf("LoadFile: %v, %v", rows, err)
	}
	if _, err := LoadFile(filepath.Join(dir, "notes.txt")); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("got %v, want ErrUnsupportedFile", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeWKB(t *testing.T) {
	b, err := EncodeWKB(orb.Point{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0xE6 || b[1] != 0x10 || b[2] != 0 || b[3] != 0 {
		t.Errorf("srid prefix = % x", b[:4])
	}
}

// fakeDriver serves a fixed result set for every query.
type fakeDriver struct{ rows [][]driver.Value }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn(d), nil }

type fakeConn fakeDriver

func (c fakeConn) Prepare(string) (driver.Stmt, error) { return fakeStmt(c), nil }
func (fakeConn) Close() error                          { return nil }
func (fakeConn) Begin() (driver.Tx, error)             { return nil, errors.New("no transactions") }

type fakeStmt fakeConn

func (fakeStmt) Close() error                               { return nil }
func (fakeStmt) NumInput() int                              { return 0 }
func (fakeStmt) Exec([]driver.Value) (driver.Result, error) { return nil, errors.New("read only") }
func (s fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return &fakeRows{data: s.rows}, nil
}

type fakeRows struct {
	data [][]driver.Value
	i    int
}

func (*fakeRows) Columns() []string { return []string{"id", "geom"} }
func (*fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func init() {
	sql.Register("geoview-fake", fakeDriver{rows: [][]driver.Value{
		{int64(1), []byte("POINT(1 2)")},
		{int64(2), nil},
		{int64(3), "LINESTRING(0 0,1 1)"},
	}})
}

func TestSQLRows(t *testing.T) {
	db, err := Open(context.Background(), "geoview-fake", "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows, err := SQL{DB: db, Query: "SELECT id, ST_AsText(geom) FROM roads"}.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want NULL skipped", len(rows))
	}
	if rows[1].ID != 3 || string(rows[1].Data) != "LINESTRING(0 0,1 1)" || !rows[1].Text {
		t.Errorf("row = %+v", rows[1])
	}
}
