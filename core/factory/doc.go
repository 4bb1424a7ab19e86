// Package factory is a small generic registry that builds modules from
// configuration. A module is selected by a type string; its factory decodes
// the raw settings map into a typed struct with Decode.
//
//	reg := factory.NewRegistry[schedule.Provider]()
//	_ = reg.Register("file", func(conf map[string]any) (schedule.Provider, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return source.NewFile(c.Path), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "schedule.yaml"}})
package factory
