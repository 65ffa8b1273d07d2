package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imamik/ec2-cli/internal/config"
)

// Source says where a profile was found.
type Source string

const (
	SourceBuiltIn Source = "built-in"
	SourceLocal   Source = "local"
	SourceGlobal  Source = "global"
)

// Info describes an available profile.
type Info struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
	Path   string `json:"path,omitempty"`
}

// NotFoundError is returned when no directory holds the requested profile.
type NotFoundError struct {
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// Loader resolves profiles by name. Local profiles shadow global ones, and
// both shadow the built-in default.
type Loader struct {
	LocalDir  string
	GlobalDir string
}

// NewLoader returns a loader for the working directory and the user's
// configuration directory.
func NewLoader() *Loader {
	return &Loader{
		LocalDir:  filepath.Join(config.LocalDirName, "profiles"),
		GlobalDir: config.GlobalProfileDir(),
	}
}

var profileExtensions = []string{".yaml", ".yml"}

// Load finds, parses and validates the named profile.
func (l *Loader) Load(name string) (*Profile, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid profile name %q", name)
	}

	path, _, err := l.find(name)
	if err != nil {
		return nil, err
	}
	if path == "" {
		if name == DefaultName {
			return Default(), nil
		}
		return nil, &NotFoundError{Name: name, Searched: l.dirs()}
	}

	p, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	return p, nil
}

// Path returns the file backing the named profile, or "" for the built-in default.
func (l *Loader) Path(name string) (string, Source, error) {
	path, source, err := l.find(name)
	if err != nil {
		return "", "", err
	}
	if path == "" {
		if name == DefaultName {
			return "", SourceBuiltIn, nil
		}
		return "", "", &NotFoundError{Name: name, Searched: l.dirs()}
	}
	return path, source, nil
}

func (l *Loader) find(name string) (string, Source, error) {
	for _, candidate := range []struct {
		dir    string
		source Source
	}{
		{l.LocalDir, SourceLocal},
		{l.GlobalDir, SourceGlobal},
	} {
		if candidate.dir == "" {
			continue
		}
		for _, ext := range profileExtensions {
			path := filepath.Join(candidate.dir, name+ext)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, candidate.source, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", "", fmt.Errorf("failed to stat profile %s: %w", path, err)
			}
		}
	}
	return "", "", nil
}

func (l *Loader) dirs() []string {
	var dirs []string
	for _, d := range []string{l.LocalDir, l.GlobalDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// List returns every visible profile sorted by name. A name present in more
// than one location is reported once, from the location Load would use.
func (l *Loader) List() ([]Info, error) {
	seen := map[string]Info{}
	for _, candidate := range []struct {
		dir    string
		source Source
	}{
		{l.GlobalDir, SourceGlobal},
		{l.LocalDir, SourceLocal},
	} {
		if candidate.dir == "" {
			continue
		}
		entries, err := os.ReadDir(candidate.dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read profile directory %s: %w", candidate.dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ext)
			if prev, ok := seen[name]; ok && prev.Source == candidate.source && ext == ".yml" {
				// .yaml wins over .yml within one directory.
				continue
			}
			seen[name] = Info{Name: name, Source: candidate.source, Path: filepath.Join(candidate.dir, e.Name())}
		}
	}
	if _, ok := seen[DefaultName]; !ok {
		seen[DefaultName] = Info{Name: DefaultName, Source: SourceBuiltIn}
	}

	out := make([]Info, 0, len(seen))
	for _, info := range seen {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadFile parses a profile file without validating it.
func LoadFile(path string) (*Profile, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile and fills in defaults. Unknown keys are rejected.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

// Marshal renders a profile as YAML.
func Marshal(p *Profile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
