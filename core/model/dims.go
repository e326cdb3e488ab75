package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Dims holds the extent of the four dense entity sets of one solve.
type Dims struct {
	Horizon    int `json:"horizon" yaml:"horizon" validate:"gte=1"`       // p, time slots
	Satellites int `json:"satellites" yaml:"satellites" validate:"gte=1"` // m
	Areas      int `json:"areas" yaml:"areas" validate:"gte=1"`           // n
	Stations   int `json:"stations" yaml:"stations" validate:"gte=0"`     // o
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every entity set is well formed.
func (d Dims) Validate() error {
	return structErr("dims", validate.Struct(d))
}

// ValidTime reports whether t is inside the horizon.
func (d Dims) ValidTime(t int) bool { return t >= 0 && t < d.Horizon }

// ValidSat reports whether j is a known satellite.
func (d Dims) ValidSat(j int) bool { return j >= 0 && j < d.Satellites }

// ValidArea reports whether i is a known area.
func (d Dims) ValidArea(i int) bool { return i >= 0 && i < d.Areas }

// ValidStation reports whether k is a known ground station.
func (d Dims) ValidStation(k int) bool { return k >= 0 && k < d.Stations }

func (d Dims) String() string {
	return fmt.Sprintf("p=%d m=%d n=%d o=%d", d.Horizon, d.Satellites, d.Areas, d.Stations)
}

// Capabilities selects the constraint groups composed into a model.
type Capabilities struct {
	Processing bool `json:"processing"`
	Battery    bool `json:"battery"`
}

// Named variants of increasing fidelity.
const (
	VariantBase       = "base"
	VariantProcessing = "processing"
	VariantBattery    = "battery"
)

// ParseVariant maps a variant name to its capability set.
func ParseVariant(name string) (Capabilities, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VariantBase, "":
		return Capabilities{}, nil
	case VariantProcessing:
		return Capabilities{Processing: true}, nil
	case VariantBattery:
		return Capabilities{Processing: true, Battery: true}, nil
	default:
		return Capabilities{}, fmt.Errorf("unknown variant %q", name)
	}
}

// Variant returns the name of the capability set. Non-standard combinations
// are rendered as a "+" separated list.
func (c Capabilities) Variant() string {
	switch c {
	case Capabilities{}:
		return VariantBase
	case Capabilities{Processing: true}:
		return VariantProcessing
	case Capabilities{Processing: true, Battery: true}:
		return VariantBattery
	}
	return "base+battery"
}

// structErr converts validator output into an InputError rooted at prefix.
func structErr(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fieldErr(prefix, "%v", err)
	}
	fe := verrs[0]
	field := prefix + "." + strings.ToLower(fe.Field())
	if fe.Param() != "" {
		return fieldErr(field, "must satisfy %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value())
	}
	return fieldErr(field, "must satisfy %s, got %v", fe.Tag(), fe.Value())
}
