package config

// Default configuration values.
const (
	DefaultMaxParallelism  = 1
	DefaultConnectorScheme = "http"
	DefaultConnectorPath   = "/jolokia"
	DefaultTimeoutMS       = 30000
)

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.MaxParallelism == 0 {
		cfg.MaxParallelism = DefaultMaxParallelism
	}
	applyConnectorDefaults(cfg)
	applyServerDefaults(cfg)
	if cfg.Tracing == nil {
		cfg.Tracing = &TracingConfig{}
	}
	if cfg.Journal == nil {
		cfg.Journal = &JournalConfig{}
	}
}

func applyConnectorDefaults(cfg *Config) {
	if cfg.Connector == nil {
		cfg.Connector = &ConnectorConfig{}
	}
	if cfg.Connector.Scheme == "" {
		cfg.Connector.Scheme = DefaultConnectorScheme
	}
	if cfg.Connector.Path == "" {
		cfg.Connector.Path = DefaultConnectorPath
	}
	if cfg.Connector.TimeoutMS == 0 {
		cfg.Connector.TimeoutMS = DefaultTimeoutMS
	}
}

func applyServerDefaults(cfg *Config) {
	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		// Default name is host:port
		if s.Name == "" && s.Host != "" && s.Port != 0 {
			s.Name = serverAddress(s.Host, s.Port)
		}
	}
}
