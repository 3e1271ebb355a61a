// Package presets holds the built-in preset catalogue.
package presets

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

//go:embed presets.yaml
var builtinYAML []byte

// File is the on-disk layout of a preset catalogue.
type File struct {
	Presets []cultivation.Preset `yaml:"presets"`
}

// Builtin returns the built-in presets in catalogue order.
func Builtin() ([]cultivation.Preset, error) {
	var f File
	if err := yaml.Unmarshal(builtinYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing built-in presets: %w", err)
	}
	for i := range f.Presets {
		f.Presets[i].Builtin = true
	}
	return f.Presets, nil
}

// Lookup returns the built-in preset with the given id, or nil if there is none.
func Lookup(id string) (*cultivation.Preset, error) {
	all, err := Builtin()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Decode reads a preset catalogue in the built-in YAML layout. Every preset
// needs an id.
func Decode(r io.Reader) ([]cultivation.Preset, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding presets: %w", err)
	}
	for i, p := range f.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset %d has no id", i)
		}
	}
	return f.Presets, nil
}
