package config

const (
	defaultConfigPath        = "~/.config/shelver/config.toml"
	defaultDataDir           = "~/.local/share/shelver"
	defaultLogDir            = "~/.local/share/shelver/logs"
	defaultDatabaseName      = "shelver.db"
	defaultMatchThreshold    = 0.25
	defaultImportMode        = "auto"
	defaultImportWorkers     = 4
	defaultClientType        = "blackhole"
	defaultSettleSeconds     = 30
	defaultNtfyTimeout       = 10
	defaultPollInterval      = 30
	defaultWorkflowWorkers   = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	ntfyTopicEnv             = "SHELVER_NTFY_TOPIC"
	defaultPreferredLanguage = "eng"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Matching: Matching{
			Threshold:          defaultMatchThreshold,
			PreferredLanguages: []string{defaultPreferredLanguage},
		},
		Import: Import{
			Mode:    defaultImportMode,
			Workers: defaultImportWorkers,
		},
		Notifications: Notifications{
			RequestTimeout:    defaultNtfyTimeout,
			DownloadCompleted: true,
			ImportIncomplete:  true,
		},
		Workflow: Workflow{
			PollInterval: defaultPollInterval,
			Workers:      defaultWorkflowWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
