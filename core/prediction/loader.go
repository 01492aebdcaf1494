package prediction

import (
	"fmt"

	"github.com/kilianp07/batteryhealth/core/factory"
)

var modelRegistry = factory.NewRegistry[Model]()

// RegisterModel adds a model constructor for kind. Constructors read the
// artifact named in their options and fail if it is missing or unusable.
func RegisterModel(kind string, f factory.Factory[Model]) error {
	return modelRegistry.Register(kind, f)
}

// ModelKinds lists the registered model kinds.
func ModelKinds() []string { return modelRegistry.Kinds() }

// Load acquires the model described by cfg. It is meant to be called once per
// process; every failure is returned as *ModelLoadError.
func Load(cfg factory.ModuleConfig) (m Model, err error) {
	src := artifactSource(cfg.Options)
	if cfg.Kind == "" {
		return nil, &ModelLoadError{Err: ErrNoModel}
	}
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = &ModelLoadError{Kind: cfg.Kind, Source: src, Err: fmt.Errorf("%w: %v", ErrModelPanic, r)}
		}
	}()
	m, err = modelRegistry.Create(cfg)
	if err != nil {
		return nil, &ModelLoadError{Kind: cfg.Kind, Source: src, Err: err}
	}
	if m == nil {
		return nil, &ModelLoadError{Kind: cfg.Kind, Source: src, Err: ErrNoModel}
	}
	return m, nil
}

func artifactSource(opts map[string]any) string {
	for _, k := range []string{"path", "url"} {
		if s, ok := opts[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
