package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/errors"
)

// HomeDir returns the docsign data directory.
// DOCSIGN_HOME wins when set, otherwise this is ~/.docsign.
//
// Returns an error if the home directory cannot be determined.
func HomeDir() (string, error) {
	if dir := os.Getenv(constants.HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.DocsignHome), nil
}

// GlobalConfigDir returns the directory holding the global configuration file.
func GlobalConfigDir() (string, error) {
	return HomeDir()
}

// ProjectConfigDir returns the relative path to the project configuration directory.
func ProjectConfigDir() string {
	return constants.DocsignHome
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.GlobalConfigName)
}

// resolvePaths fills empty key and store locations from the docsign home.
func resolvePaths(cfg *Config, home string) {
	if cfg.Keys.Dir == "" {
		cfg.Keys.Dir = filepath.Join(home, constants.KeysDir)
	}
	if cfg.Store.Path != "" {
		return
	}
	switch cfg.Store.Backend {
	case BackendSQLite:
		cfg.Store.Path = filepath.Join(home, constants.DocumentsDBFileName)
	case BackendBadger:
		cfg.Store.Path = filepath.Join(home, constants.BadgerDirName)
	}
}
