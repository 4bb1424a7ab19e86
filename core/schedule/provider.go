package schedule

import (
	"context"

	"github.com/kilianp07/outages/core/factory"
)

// Provider fetches the raw schedule from one operator.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (RawSchedule, error)
}

// Persister keeps the last good snapshot across restarts.
type Persister interface {
	Save(ctx context.Context, snap *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error)
}

var providerRegistry = factory.NewRegistry[Provider]()

// RegisterProvider adds a provider factory identified by name.
func RegisterProvider(name string, f factory.Factory[Provider]) error {
	return providerRegistry.Register(name, f)
}

// NewProvider builds the provider selected by cfg.Type.
func NewProvider(cfg factory.ModuleConfig) (Provider, error) {
	return providerRegistry.Create(cfg)
}

// ProviderNames lists the registered provider types.
func ProviderNames() []string { return providerRegistry.Names() }
