package model

import "math"

// Params holds the capacity and energy parameters of one solve.
// Per-satellite slices are indexed by satellite, Downlink by station.
type Params struct {
	Memory   []float64 `json:"memory" yaml:"memory" validate:"dive,gte=0"`
	Uplink   []float64 `json:"uplink" yaml:"uplink" validate:"dive,gte=0"`
	Downlink []float64 `json:"downlink" yaml:"downlink" validate:"dive,gte=0"`

	Capacity  []float64 `json:"capacity,omitempty" yaml:"capacity,omitempty" validate:"dive,gte=0"`
	MinCharge []float64 `json:"min_charge,omitempty" yaml:"min_charge,omitempty" validate:"dive,gte=0"`
	MaxCharge []float64 `json:"max_charge,omitempty" yaml:"max_charge,omitempty" validate:"dive,gte=0"`

	ChargeRate    float64 `json:"charge_rate,omitempty" yaml:"charge_rate,omitempty" validate:"gte=0"`
	IdleDrain     float64 `json:"idle_drain,omitempty" yaml:"idle_drain,omitempty" validate:"gte=0"`
	CollectDrain  float64 `json:"collect_drain,omitempty" yaml:"collect_drain,omitempty" validate:"gte=0"`
	DownlinkDrain float64 `json:"downlink_drain,omitempty" yaml:"downlink_drain,omitempty" validate:"gte=0"`
	ProcessDrain  float64 `json:"process_drain,omitempty" yaml:"process_drain,omitempty" validate:"gte=0"`

	ProcessingTime int `json:"processing_time,omitempty" yaml:"processing_time,omitempty" validate:"gte=0"`
}

// Validate checks the parameters against the entity sets and the enabled
// capabilities. Battery slices are only required when the battery is on.
func (p Params) Validate(d Dims, caps Capabilities) error {
	if err := structErr("params", validate.Struct(p)); err != nil {
		return err
	}
	if err := lengthIs("params.memory", p.Memory, d.Satellites); err != nil {
		return err
	}
	if err := lengthIs("params.uplink", p.Uplink, d.Satellites); err != nil {
		return err
	}
	if err := lengthIs("params.downlink", p.Downlink, d.Stations); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		vals []float64
	}{{"params.memory", p.Memory}, {"params.uplink", p.Uplink}, {"params.downlink", p.Downlink}} {
		if err := finite(f.name, f.vals); err != nil {
			return err
		}
	}
	if caps.Processing {
		if p.ProcessingTime < 1 || p.ProcessingTime > d.Horizon {
			return fieldErr("params.processing_time", "must lie in [1,%d] when processing is enabled, got %d", d.Horizon, p.ProcessingTime)
		}
	}
	if !caps.Battery {
		return nil
	}
	if err := lengthIs("params.capacity", p.Capacity, d.Satellites); err != nil {
		return err
	}
	if err := lengthIs("params.min_charge", p.MinCharge, d.Satellites); err != nil {
		return err
	}
	if err := lengthIs("params.max_charge", p.MaxCharge, d.Satellites); err != nil {
		return err
	}
	for j := range p.MinCharge {
		if p.MinCharge[j] > p.MaxCharge[j] {
			return rowErr("params.min_charge", j, "min charge %g exceeds max charge %g", p.MinCharge[j], p.MaxCharge[j])
		}
	}
	return nil
}

// ProcessingSlots returns pt when processing is enabled and 0 otherwise.
func (p Params) ProcessingSlots(caps Capabilities) int {
	if !caps.Processing {
		return 0
	}
	return p.ProcessingTime
}

func lengthIs(field string, vals []float64, want int) error {
	if len(vals) != want {
		return fieldErr(field, "expected %d values, got %d", want, len(vals))
	}
	return nil
}

func finite(field string, vals []float64) error {
	for row, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rowErr(field, row, "value must be finite, got %v", v)
		}
	}
	return nil
}
