package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/layout"
)

// settings is the resolved command configuration.
type settings struct {
	Layout    layout.Layout
	Chain     string
	Overrides config.Overrides
}

func loadSettings(v *viper.Viper) (settings, error) {
	l, err := resolveLayout(v)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		Layout: l,
		Chain:  v.GetString("chain"),
		Overrides: config.Overrides{
			CheckpointSyncURL:     v.GetString("checkpoint-sync-url"),
			DisableCheckpointSync: v.GetBool("no-checkpoint-sync"),
		},
	}

	ports := []struct {
		key string
		dst *uint16
	}{
		{"el-http-port", &s.Overrides.ELHTTPPort},
		{"el-authrpc-port", &s.Overrides.ELAuthRPCPort},
		{"cl-http-port", &s.Overrides.CLHTTPPort},
	}
	for _, p := range ports {
		n := v.GetUint(p.key)
		if n > math.MaxUint16 {
			return settings{}, fmt.Errorf("--%s: %d is not a valid port", p.key, n)
		}
		*p.dst = uint16(n)
	}
	return s, nil
}

// pair returns the validated node pair for s.
func (s settings) pair() (config.Pair, error) {
	p, err := config.Profile(s.Chain, s.Layout)
	if err != nil {
		return config.Pair{}, err
	}
	p = p.Apply(s.Overrides)
	if err := p.Validate(); err != nil {
		return config.Pair{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}

// duration reads key as a duration and rejects negative values.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	d := v.GetDuration(key)
	if d < 0 {
		return 0, fmt.Errorf("--%s must not be negative", key)
	}
	return d, nil
}
