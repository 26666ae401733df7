package graph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/syssam/ripple"
	"github.com/syssam/ripple/schema/rel"
)

// config holds the build configuration.
type config struct {
	overrides *OverrideSet
}

// Option configures the model build.
type Option func(*config) error

// WithOverrides applies an externally declared set of cascade overrides
// during the build. Overrides are keyed by (declaring type, relationship
// name) and replace only that side's direction, taking precedence over
// every derived default and over overrides declared in the schema.
func WithOverrides(o *OverrideSet) Option {
	return func(c *config) error {
		c.overrides = o
		return nil
	}
}

// Override is one externally declared cascade override.
type Override struct {
	// Type is the declaring entity type.
	Type string `yaml:"type"`
	// Rel is the relationship name on that type.
	Rel string `yaml:"rel"`
	// Cascade is one of "all", "save_update" or "none".
	Cascade string `yaml:"cascade"`
}

// OverrideSet is a collection of cascade overrides, typically loaded from
// a YAML document of the form:
//
//	overrides:
//	  - type: Airport
//	    rel: flights
//	    cascade: save_update
type OverrideSet struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadOverrides decodes an override set from YAML.
func LoadOverrides(r io.Reader) (*OverrideSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &OverrideSet{}
	if err := dec.Decode(s); err != nil {
		if err == io.EOF {
			return s, nil
		}
		return nil, fmt.Errorf("graph: decoding overrides: %w", err)
	}
	for _, o := range s.Overrides {
		if _, err := parseCascade(o.Cascade); err != nil {
			return nil, &ripple.ConfigurationError{Type: o.Type, Rel: o.Rel, Cause: err}
		}
	}
	return s, nil
}

// LoadOverridesFile reads an override set from the YAML file at path.
func LoadOverridesFile(path string) (*OverrideSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadOverrides(f)
}

// apply writes the overrides onto the matching declared sides. Called
// before associations are resolved, so the policy table reflects them.
func (s *OverrideSet) apply(g *Graph) error {
	if s == nil {
		return nil
	}
	for _, o := range s.Overrides {
		t, ok := g.Type(o.Type)
		if !ok {
			return ripple.NewConfigurationError(o.Type, o.Rel, "override names an unknown type")
		}
		r, ok := t.Rel(o.Rel)
		if !ok {
			return ripple.NewConfigurationError(o.Type, o.Rel, "override names an unknown relationship")
		}
		c, err := parseCascade(o.Cascade)
		if err != nil {
			return &ripple.ConfigurationError{Type: o.Type, Rel: o.Rel, Cause: err}
		}
		r.Override = c
	}
	return nil
}

func parseCascade(s string) (rel.Cascade, error) {
	switch s {
	case "all":
		return rel.All, nil
	case "save_update":
		return rel.SaveUpdate, nil
	case "none":
		return rel.None, nil
	default:
		return rel.Unset, fmt.Errorf("invalid cascade override %q; use all, save_update or none", s)
	}
}

// Watcher reloads an override file whenever it changes on disk.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// WatchOverrides watches the override file at path and invokes fn with the
// reloaded set (or the load error) after every write. The initial load is
// not reported; call LoadOverridesFile first for that. Close the returned
// watcher to stop.
func WatchOverrides(path string, fn func(*OverrideSet, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{w: fsw, done: make(chan struct{})}
	go w.loop(filepath.Clean(path), fn)
	return w, nil
}

func (w *Watcher) loop(path string, fn func(*OverrideSet, error)) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				fn(LoadOverridesFile(path))
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			fn(nil, err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}
