// Package factory holds the generic registry used to build pluggable
// components (models, metrics sinks) from configuration. A component is
// described by a kind string and a map of raw options; the registered
// constructor decodes the options into its own struct.
//
//	reg := factory.NewRegistry[prediction.Model]()
//	_ = reg.Register("linear", func(opts map[string]any) (prediction.Model, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(opts, &c); err != nil {
//	        return nil, err
//	    }
//	    return models.LoadLinear(c.Path)
//	})
//	m, err := reg.Create(factory.ModuleConfig{Kind: "linear", Options: map[string]any{"path": "model.json"}})
package factory
