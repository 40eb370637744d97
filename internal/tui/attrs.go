package tui

import (
	"sort"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"geoview/internal/source"
)

const maxColW = 24

// refreshAttrs rebuilds the table from the selected layer's rows.
func (m *Model) refreshAttrs() {
	if m.selected < 0 || m.selected >= len(m.layers) {
		m.showAttrs = false
		m.status = "no layer selected"
		return
	}
	cols, rows := buildAttributes(m.layers[m.selected].snapshot())
	// an empty table panics in bubbles on render
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for " + m.layers[m.selected].layer.ID()
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 6})
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxColW)})
	}
	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		trows[i] = table.Row(r)
	}
	// clear rows first so columns and rows never disagree in length
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes unions the property keys of rows into sorted columns.
// Each table row starts with the row id; missing values are blank.
func buildAttributes(rows []source.Row) ([]string, [][]string) {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r.Props {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	if len(cols) == 0 {
		return nil, nil
	}
	sort.Strings(cols)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		vals := make([]string, 0, len(cols)+1)
		vals = append(vals, strconv.FormatInt(r.ID, 10))
		for _, c := range cols {
			vals = append(vals, r.Props[c])
		}
		out = append(out, vals)
	}
	return cols, out
}
