package model

import "fmt"

// Instance is one validated scheduling problem: entity sets, opportunities,
// eclipse map and parameters.
type Instance struct {
	Dims    Dims
	Index   *OpportunityIndex
	Eclipse *Eclipse
	Params  Params
}

// NewInstance assembles an instance from validated parts. A nil eclipse map
// means the fleet is always sunlit. Parameters are checked against the base
// capability set; use Check for variant specific requirements.
func NewInstance(idx *OpportunityIndex, ecl *Eclipse, params Params) (*Instance, error) {
	if idx == nil {
		return nil, fieldErr("collections", "opportunity index is required")
	}
	d := idx.Dims()
	if ecl == nil {
		var err error
		if ecl, err = NewEclipse(d, nil); err != nil {
			return nil, err
		}
	} else if ecl.dims != d {
		return nil, fieldErr("eclipse", "dims %s do not match instance dims %s", ecl.dims, d)
	}
	if err := params.Validate(d, Capabilities{}); err != nil {
		return nil, err
	}
	return &Instance{Dims: d, Index: idx, Eclipse: ecl, Params: params}, nil
}

// Check validates the instance for the given capability set.
func (in *Instance) Check(caps Capabilities) error {
	if in == nil || in.Index == nil {
		return fmt.Errorf("%w: empty instance", ErrInvalidInput)
	}
	return in.Params.Validate(in.Dims, caps)
}
