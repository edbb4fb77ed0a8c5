package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultOnce sync.Once
	pending     []prometheus.Collector
)

// register is called from init() in each metrics file.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister puts every relay collector on the default registry exactly once.
func MustRegister() {
	defaultOnce.Do(func() {
		prometheus.MustRegister(pending...)
	})
}

// RegisterOn adds the relay collectors to reg; used with private registries.
func RegisterOn(reg prometheus.Registerer) error {
	for _, c := range pending {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
