package config

const (
	defaultDataDir   = "~/.local/share/retrace"
	defaultLogDir    = "~/.local/share/retrace/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultStructuralWeight = 0.5
	defaultAttributeWeight  = 0.3
	defaultValueWeight      = 0.2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scoring: Scoring{
			StructuralWeight: defaultStructuralWeight,
			AttributeWeight:  defaultAttributeWeight,
			ValueWeight:      defaultValueWeight,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
