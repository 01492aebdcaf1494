package models

import (
	"context"
	"fmt"

	"github.com/kilianp07/batteryhealth/core/factory"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// Model kinds registered by this package.
const (
	KindLinear = "linear"
	KindRemote = "remote"
)

func init() {
	_ = prediction.RegisterModel(KindLinear, func(opts map[string]any) (prediction.Model, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(opts, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("linear model requires a path")
		}
		m, err := LoadLinear(c.Path)
		if err != nil {
			return nil, err
		}
		return m, nil
	})

	_ = prediction.RegisterModel(KindRemote, func(opts map[string]any) (prediction.Model, error) {
		var c RemoteConfig
		if err := factory.Decode(opts, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout())
		defer cancel()
		m, err := NewRemoteModel(ctx, c, nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}
