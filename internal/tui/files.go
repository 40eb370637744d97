package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"geoview/internal/source"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !source.Supported(name) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// openFile adds p as a new layer. The file is read when the layer is
// first shown.
func (m *Model) openFile(p string) *layerEntry {
	if !source.Supported(p) {
		m.status = "unsupported file: " + filepath.Ext(p)
		return nil
	}
	for _, e := range m.layers {
		if e.path == p {
			m.status = "already open: " + filepath.Base(p)
			return nil
		}
	}
	e := m.addLayer(filepath.Base(p), p, fileLoader(p))
	m.status = fmt.Sprintf("layer %d: %s", len(m.layers), filepath.Base(p))
	return e
}

// openSelected opens the file under the sidebar cursor and shows it.
func (m *Model) openSelected() tea.Cmd {
	it, ok := m.l.SelectedItem().(fileItem)
	if !ok {
		return nil
	}
	e := m.openFile(it.path)
	if e == nil {
		return nil
	}
	return showLayer(e, true)
}
