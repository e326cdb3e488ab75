package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InstanceFile is the on-disk layout of an instance.
type InstanceFile struct {
	Dims           Dims         `json:"dims" yaml:"dims"`
	Collections    []Collection `json:"collections" yaml:"collections"`
	Communications []Contact    `json:"communications" yaml:"communications"`
	Eclipse        EclipseFile  `json:"eclipse" yaml:"eclipse"`
	Params         Params       `json:"params" yaml:"params"`
}

// EclipseFile accepts dense entries, half-open intervals per satellite, or
// both. Intervals are applied after the dense entries.
type EclipseFile struct {
	Dense     []ShadowEntry      `json:"dense,omitempty" yaml:"dense,omitempty"`
	Intervals map[int][]Interval `json:"intervals,omitempty" yaml:"intervals,omitempty"`
}

// LoadInstance reads an instance from a JSON or YAML file.
func LoadInstance(path string) (*Instance, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var format string
	switch ext {
	case ".yaml", ".yml":
		format = "yaml"
	case ".json":
		format = "json"
	default:
		return nil, fmt.Errorf("unsupported instance format: %s", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeInstance(f, format)
}

// DecodeInstance reads from r to decode and validate an instance.
func DecodeInstance(r io.Reader, format string) (*Instance, error) {
	var raw InstanceFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode instance: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode instance: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return raw.ToModel()
}

// ToModel validates the raw file contents and builds the instance.
func (f InstanceFile) ToModel() (*Instance, error) {
	idx, err := NewOpportunityIndex(f.Dims, f.Collections, f.Communications)
	if err != nil {
		return nil, err
	}
	ecl, err := f.Eclipse.build(f.Dims)
	if err != nil {
		return nil, err
	}
	return NewInstance(idx, ecl, f.Params)
}

func (e EclipseFile) build(d Dims) (*Eclipse, error) {
	dense, err := NewEclipse(d, e.Dense)
	if err != nil {
		return nil, err
	}
	if len(e.Intervals) == 0 {
		return dense, nil
	}
	iv, err := EclipseFromIntervals(d, e.Intervals)
	if err != nil {
		return nil, err
	}
	for n, dark := range iv.dark {
		dense.dark[n] = dense.dark[n] || dark
	}
	dense.accumulate()
	return dense, nil
}

// FileFromInstance converts an instance back into its on-disk layout.
// Eclipse data is written as dense entries for shadowed instants only.
func FileFromInstance(in *Instance) InstanceFile {
	f := InstanceFile{
		Dims:           in.Dims,
		Collections:    append([]Collection(nil), in.Index.Collections()...),
		Communications: append([]Contact(nil), in.Index.Contacts()...),
		Params:         in.Params,
	}
	for j := 0; j < in.Dims.Satellites; j++ {
		for t := 0; t < in.Dims.Horizon; t++ {
			if in.Eclipse.InShadow(t, j) == 1 {
				f.Eclipse.Dense = append(f.Eclipse.Dense, ShadowEntry{T: t, Sat: j, Shadow: 1})
			}
		}
	}
	return f
}
