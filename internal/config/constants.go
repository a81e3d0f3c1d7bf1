package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./mangashelf.db"

	// DefaultLibraryUpdateSchedule runs the library update twice a day
	DefaultLibraryUpdateSchedule = "0 */12 * * *"

	// ConfigFileEnv names the environment variable holding an optional config file
	ConfigFileEnv = "MANGASHELF_CONFIG"
)
