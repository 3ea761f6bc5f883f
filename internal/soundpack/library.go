package soundpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const configFile = "config.json"

// Library resolves soundpack ids to directories under Root
type Library struct {
	Root string
}

// NewLibrary returns a library rooted at dir
func NewLibrary(dir string) *Library {
	return &Library{Root: dir}
}

// Dir returns the directory for a soundpack id
func (l *Library) Dir(id string) string {
	return filepath.Join(l.Root, id)
}

// Load reads and parses <root>/<id>/config.json
func (l *Library) Load(id string) (*Pack, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: invalid soundpack id %q", ErrNoConfig, id)
	}

	path := filepath.Join(l.Dir(id), configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	p.dir = l.Dir(id)
	return p, nil
}

// LoadWithAudio loads the config and decodes its audio source
func (l *Library) LoadWithAudio(id string) (*Pack, *Buffer, error) {
	p, err := l.Load(id)
	if err != nil {
		return nil, nil, err
	}
	src, err := p.SourcePath()
	if err != nil {
		return p, nil, err
	}
	buf, err := Decode(src)
	if err != nil {
		return p, nil, err
	}
	return p, buf, nil
}

// Meta summarises a soundpack directory for menus and listings
type Meta struct {
	ID      string
	Name    string
	Author  string
	Version string
	Mouse   bool
	Err     error
}

// Scan lists every subdirectory of Root that holds a config.json.
// Packs whose config cannot be parsed are still listed with Err set.
func (l *Library) Scan() ([]Meta, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read soundpacks directory: %w", err)
	}

	var metas []Meta
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		if _, err := os.Stat(filepath.Join(l.Dir(id), configFile)); err != nil {
			continue
		}

		p, err := l.Load(id)
		if err != nil {
			metas = append(metas, Meta{ID: id, Name: id, Err: err})
			continue
		}
		name := p.Name
		if name == "" {
			name = id
		}
		metas = append(metas, Meta{
			ID:      id,
			Name:    name,
			Author:  p.Author,
			Version: p.Version,
			Mouse:   p.Mouse,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return strings.ToLower(metas[i].Name) < strings.ToLower(metas[j].Name)
	})
	return metas, nil
}
