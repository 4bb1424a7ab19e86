package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollConf struct {
	URL      string        `json:"url"`
	Interval time.Duration `json:"interval"`
	Region   int           `json:"region"`
}

type poller struct{ conf pollConf }

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*poller]()
	err := reg.Register("http", func(conf map[string]any) (*poller, error) {
		var c pollConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &poller{conf: c}, nil
	})
	require.NoError(t, err)

	p, err := reg.Create(ModuleConfig{Type: "http", Conf: map[string]any{
		"url":      "http://example.invalid",
		"interval": "15m",
		"region":   "25",
	}})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, p.conf.Interval)
	assert.Equal(t, 25, p.conf.Region)
	assert.Equal(t, []string{"http"}, reg.Names())
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }), "duplicate")
	assert.Error(t, reg.Register("y", nil), "nil factory")

	_, err := reg.Create(ModuleConfig{Type: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
