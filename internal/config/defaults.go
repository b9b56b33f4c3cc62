package config

const (
	defaultDataDir         = "~/.local/share/printflow"
	defaultLogDir          = "~/.local/share/printflow/logs"
	defaultAPIBind         = "127.0.0.1:7480"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRequestTimeout  = 10
	defaultOutboxSize      = 64
	defaultNotificationsOn = true
	databaseFilename       = "printflow.db"
	lockFilename           = "printflowd.lock"
	logFilename            = "printflow.log"
	defaultConfigLocation  = "~/.config/printflow/config.toml"
	projectConfigFilename  = "printflow.toml"
	envAPIToken            = "PRINTFLOW_API_TOKEN"
	envNtfyTopic           = "PRINTFLOW_NTFY_TOPIC"
	envActorID             = "PRINTFLOW_ACTOR_ID"
	envActorRole           = "PRINTFLOW_ACTOR_ROLE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Notifications: Notifications{
			Enabled:        defaultNotificationsOn,
			RequestTimeout: defaultRequestTimeout,
			OutboxSize:     defaultOutboxSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
