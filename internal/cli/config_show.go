package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/docsign/internal/config"
)

// maskedValue replaces secrets in config output.
const maskedValue = "****"

// AddConfigCommand adds the config command group.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags))
	root.AddCommand(cmd)
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective docsign configuration with source annotations.

Each value is annotated with where it came from:
  - default: Built-in default value
  - global: From ~/.docsign/config.yaml
  - project: From .docsign/config.yaml (or the --config file)
  - env: From a DOCSIGN_* environment variable

redis.password is masked in the output.

Examples:
  docsign config show
  docsign config show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags)
		},
	}
}

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault ConfigSource = "default"
	// SourceGlobal indicates the value came from global config.
	SourceGlobal ConfigSource = "global"
	// SourceProject indicates the value came from project config.
	SourceProject ConfigSource = "project"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
)

// ConfigValueWithSource represents a configuration value with its source.
type ConfigValueWithSource struct {
	Value  any          `json:"value" yaml:"value"`
	Source ConfigSource `json:"source" yaml:"source"`
}

// configSection is one top-level config key with its ordered entries.
type configSection struct {
	name string
	keys []string
}

// AnnotatedConfig maps "section" to "key" to annotated value.
type AnnotatedConfig map[string]map[string]ConfigValueWithSource

// configLayout fixes the printing order.
func configLayout() []configSection {
	return []configSection{
		{"keys", []string{"algorithm", "backend", "dir", "passphrase_env", "lock_timeout"}},
		{"redis", []string{"addr", "password", "db", "key_prefix", "dial_timeout"}},
		{"store", []string{"backend", "path"}},
		{"content", []string{"max_size", "http_timeout"}},
		{"server", []string{"addr", "rate_limit_rps", "rate_limit_burst", "metrics_path"}},
		{"share", []string{"base_url"}},
	}
}

// runConfigShow executes the config show command.
func runConfigShow(ctx context.Context, w io.Writer, format string, flags *GlobalFlags) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return handleCommandError(w, format, fmt.Errorf("failed to load configuration: %w", err))
	}

	projectPath := flags.ConfigPath
	if projectPath == "" {
		projectPath = config.ProjectConfigPath()
	}
	annotated := buildAnnotatedConfig(cfg, loadGlobalConfigOnly(), loadConfigFile(projectPath))

	if format == OutputJSON {
		return encodeJSONIndented(w, annotated)
	}
	return outputAnnotatedYAML(w, annotated, projectPath)
}

// configValueMap returns cfg flattened to "section.key" values.
func configValueMap(cfg *config.Config) map[string]any {
	return map[string]any{
		"keys.algorithm":          cfg.Keys.Algorithm,
		"keys.backend":            cfg.Keys.Backend,
		"keys.dir":                cfg.Keys.Dir,
		"keys.passphrase_env":     cfg.Keys.PassphraseEnv,
		"keys.lock_timeout":       cfg.Keys.LockTimeout.String(),
		"redis.addr":              cfg.Redis.Addr,
		"redis.password":          cfg.Redis.Password,
		"redis.db":                cfg.Redis.DB,
		"redis.key_prefix":        cfg.Redis.KeyPrefix,
		"redis.dial_timeout":      cfg.Redis.DialTimeout.String(),
		"store.backend":           cfg.Store.Backend,
		"store.path":              cfg.Store.Path,
		"content.max_size":        cfg.Content.MaxSize,
		"content.http_timeout":    cfg.Content.HTTPTimeout.String(),
		"server.addr":             cfg.Server.Addr,
		"server.rate_limit_rps":   cfg.Server.RateLimitRPS,
		"server.rate_limit_burst": cfg.Server.RateLimitBurst,
		"server.metrics_path":     cfg.Server.MetricsPath,
		"share.base_url":          cfg.Share.BaseURL,
	}
}

// buildAnnotatedConfig annotates every effective value with its source.
func buildAnnotatedConfig(cfg *config.Config, globalCfg, projectCfg configValues) AnnotatedConfig {
	values := configValueMap(cfg)
	annotated := make(AnnotatedConfig)
	for _, section := range configLayout() {
		entries := make(map[string]ConfigValueWithSource, len(section.keys))
		for _, key := range section.keys {
			full := section.name + "." + key
			vs := determineSource(full, values[full], globalCfg, projectCfg)
			vs.Value = maskSensitiveValue(full, vs.Value)
			entries[key] = vs
		}
		annotated[section.name] = entries
	}
	return annotated
}

// configValues holds the dotted keys set in one config file.
type configValues map[string]any

// loadGlobalConfigOnly loads only the global config for source comparison.
func loadGlobalConfigOnly() configValues {
	globalPath, err := config.GlobalConfigPath()
	if err != nil {
		return nil
	}
	return loadConfigFile(globalPath)
}

// loadConfigFile reads a config file into dotted keys. Unreadable or
// malformed files yield nil; config loading reports those errors.
func loadConfigFile(path string) configValues {
	data, err := os.ReadFile(path) //nolint:gosec // Config file path
	if err != nil {
		return nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}

	result := make(configValues)
	flattenConfig("", raw, result)
	return result
}

func flattenConfig(prefix string, in map[string]any, out configValues) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenConfig(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// determineSource determines where a configuration value came from.
func determineSource(key string, value any, globalCfg, projectCfg configValues) ConfigValueWithSource {
	envKey := "DOCSIGN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, ok := os.LookupEnv(envKey); ok {
		return ConfigValueWithSource{Value: value, Source: SourceEnv}
	}
	if _, exists := projectCfg[key]; exists {
		return ConfigValueWithSource{Value: value, Source: SourceProject}
	}
	if _, exists := globalCfg[key]; exists {
		return ConfigValueWithSource{Value: value, Source: SourceGlobal}
	}
	return ConfigValueWithSource{Value: value, Source: SourceDefault}
}

// maskSensitiveValue hides secrets. Env var names such as
// keys.passphrase_env are not secrets and stay visible.
func maskSensitiveValue(key string, value any) any {
	if key != "redis.password" {
		return value
	}
	if s, ok := value.(string); ok && s != "" {
		return maskedValue
	}
	return value
}

// outputAnnotatedYAML prints YAML with a trailing source comment per value.
func outputAnnotatedYAML(w io.Writer, annotated AnnotatedConfig, projectPath string) error {
	_, _ = fmt.Fprintln(w, "# Effective docsign configuration")
	_, _ = fmt.Fprintln(w, "# Sources: env > project > global > default")

	for _, section := range configLayout() {
		_, _ = fmt.Fprintf(w, "%s:\n", section.name)
		for _, key := range section.keys {
			vs := annotated[section.name][key]
			_, _ = fmt.Fprintf(w, "  %s: %s  # %s\n", key, formatConfigValue(vs.Value), vs.Source)
		}
	}

	_, _ = fmt.Fprintln(w, "# Configuration files:")
	if globalPath, err := config.GlobalConfigPath(); err == nil {
		_, _ = fmt.Fprintf(w, "#   global:  %s\n", describePath(globalPath))
	}
	_, _ = fmt.Fprintf(w, "#   project: %s\n", describePath(projectPath))
	return nil
}

func describePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not found)"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// formatConfigValue renders a scalar as a YAML value.
func formatConfigValue(value any) string {
	out, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return `""`
	}
	return s
}
