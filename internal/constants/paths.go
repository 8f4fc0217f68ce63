package constants

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.docsign/logs/docsign.log
	CLILogFileName = "docsign.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the configuration file inside a docsign directory.
	GlobalConfigName = "config.yaml"

	// HomeEnvVar overrides the docsign home directory.
	HomeEnvVar = "DOCSIGN_HOME"
)
