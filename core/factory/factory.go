package factory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ErrUnknownKind is returned by Create when no constructor is registered for the kind.
var ErrUnknownKind = errors.New("unknown kind")

// ModuleConfig names a component kind together with its raw options.
type ModuleConfig struct {
	Kind    string         `json:"kind"`
	Options map[string]any `json:"options"`
}

// Factory constructs an implementation of T from raw options.
type Factory[T any] func(map[string]any) (T, error)

// Registry stores constructors keyed by kind.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register adds a constructor for kind. Registering the same kind twice fails.
func (r *Registry[T]) Register(kind string, f Factory[T]) error {
	if kind == "" {
		return fmt.Errorf("empty kind")
	}
	if f == nil {
		return fmt.Errorf("nil factory for %s", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("factory already registered for %s", kind)
	}
	r.factories[kind] = f
	return nil
}

// Create builds the component described by cfg.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}
	return f(cfg.Options)
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry[T]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Decode fills out from data using json tags. String values coming from
// environment overrides are converted to the target field types.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
