package nudge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SinkFactory creates a sink from its configuration.
type SinkFactory func(config SinkConfig) (Sink, error)

// factories stores registered sink factories by type.
var factories = make(map[string]SinkFactory)

// RegisterSinkType registers a factory for a sink type. External packages
// register their types here without creating import cycles.
func RegisterSinkType(sinkType string, factory SinkFactory) {
	factories[sinkType] = factory
	logrus.Debugf("registered sink type: %s", sinkType)
}

// CreateSink creates a sink instance from config. Disabled entries return
// (nil, nil); unknown types are an error.
func CreateSink(config SinkConfig) (Sink, error) {
	if !config.Enabled {
		logrus.Infof("skipping disabled sink: %s", config.ID)
		return nil, nil
	}

	factory, exists := factories[config.Type]
	if !exists {
		return nil, fmt.Errorf("unknown sink type: %s", config.Type)
	}

	logrus.Infof("creating sink: id=%s, type=%s", config.ID, config.Type)
	return factory(config)
}

// RegisterSinks creates and registers sinks for all enabled configs.
func RegisterSinks(registry *Registry, configs []SinkConfig) error {
	for _, cfg := range configs {
		sink, err := CreateSink(cfg)
		if err != nil {
			return fmt.Errorf("failed to create sink %s: %w", cfg.ID, err)
		}
		if sink == nil {
			continue
		}
		if err := registry.Register(sink); err != nil {
			return fmt.Errorf("failed to register sink %s: %w", cfg.ID, err)
		}
	}

	logrus.Infof("registered %d sinks", registry.Count())
	return nil
}
