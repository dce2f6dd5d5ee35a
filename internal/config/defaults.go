package config

const (
	defaultConfigPath   = "~/.config/cbztag/config.toml"
	projectConfigName   = "cbztag.toml"
	defaultStateDir     = "~/.local/share/cbztag"
	defaultLibraryDir   = "~/comics"
	defaultBackupSuffix = ".bak"
	defaultAPIBind      = "127.0.0.1:7488"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	catalogFileName     = "catalog.db"
	libraryLockName     = "library.lock"
	envPrefix           = "CBZTAG_"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LibraryDir: defaultLibraryDir,
		},
		Archive: Archive{
			BackupSuffix: defaultBackupSuffix,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
