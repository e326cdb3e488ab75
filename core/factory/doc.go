// Package factory instantiates pluggable backends (solvers, metrics sinks)
// from configuration. A backend is selected by a type string and built from
// a map of raw settings that its factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[solver.Solver]()
//	reg.Register("cbc", func(conf map[string]any) (solver.Solver, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return cbc.New(c.Path), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "cbc", Conf: map[string]any{"path": "/usr/bin/cbc"}})
package factory
