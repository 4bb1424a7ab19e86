package source

import (
	"github.com/kilianp07/outages/core/factory"
	"github.com/kilianp07/outages/core/schedule"
)

// init registers the built-in providers.
func init() {
	_ = schedule.RegisterProvider("file", func(conf map[string]any) (schedule.Provider, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFileProvider(c)
	})

	_ = schedule.RegisterProvider("yasno", func(conf map[string]any) (schedule.Provider, error) {
		var c YasnoConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewYasnoProvider(c)
	})

	_ = schedule.RegisterProvider("dtek", func(conf map[string]any) (schedule.Provider, error) {
		var c DTEKConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewDTEKProvider(c)
	})
}
