package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigName is the config file looked up in the working directory when --config is not given.
const DefaultConfigName = "config.yml"

// Config is the global lintgate configuration loaded from YAML.
type Config struct {
	Lintgate   Lintgate   `yaml:"lintgate"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Analysis   Analysis   `yaml:"analysis"`
	S3         S3         `yaml:"s3"`
}

// Lintgate holds the folders lintgate works with.
type Lintgate struct {
	HomeFolder      string `yaml:"home_folder"`
	PluginsFolder   string `yaml:"plugins_folder"`
	TempFolder      string `yaml:"temp_folder"`
	CacheFolder     string `yaml:"cache_folder"`
	ArtifactsFolder string `yaml:"artifacts_folder"`
	Mode            string `yaml:"mode"`
}

// Logger holds the logging settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// HTTPClient holds the settings of the client used to fetch remote rulesets and dependencies.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig toggles certificate verification.
type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Proxy is an optional HTTP proxy.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Analysis holds defaults for the analyse and check commands.
// Command-line flags take precedence over these values.
type Analysis struct {
	Engine           string `yaml:"engine"`
	TargetDirectory  string `yaml:"target_directory"`
	Encoding         string `yaml:"encoding"`
	OutputEncoding   string `yaml:"output_encoding"`
	SkipEngineErrors *bool  `yaml:"skip_engine_errors"`
	EngineLog        *bool  `yaml:"engine_log"`
	RepositoryURL    string `yaml:"repository_url"`
	Threads          int    `yaml:"threads"`
}

// S3 configures access to s3:// ruleset locations.
type S3 struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Profile  string `yaml:"profile"`
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file. A missing default file yields an empty configuration,
// a missing explicitly requested file is an error.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigName
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) && !explicit {
		return cfg, nil
	}

	if err := LoadYAML(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return cfg, nil
}

// GetHome returns the lintgate home folder.
func GetHome(cfg *Config) string {
	if cfg == nil || cfg.Lintgate.HomeFolder == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".lintgate"
		}
		return filepath.Join(home, ".lintgate")
	}
	return cfg.Lintgate.HomeFolder
}

// GetPluginsHome returns the folder engine plugins are loaded from.
func GetPluginsHome(cfg *Config) string {
	if cfg == nil || cfg.Lintgate.PluginsFolder == "" {
		return filepath.Join(GetHome(cfg), "plugins")
	}
	return cfg.Lintgate.PluginsFolder
}

// GetTempHome returns the temp folder.
func GetTempHome(cfg *Config) string {
	if cfg == nil || cfg.Lintgate.TempFolder == "" {
		return filepath.Join(GetHome(cfg), "tmp")
	}
	return cfg.Lintgate.TempFolder
}

// GetCacheHome returns the folder downloaded dependencies are cached in.
func GetCacheHome(cfg *Config) string {
	if cfg == nil || cfg.Lintgate.CacheFolder == "" {
		return filepath.Join(GetHome(cfg), "cache")
	}
	return cfg.Lintgate.CacheFolder
}

// GetArtifactsHome returns the folder launch artifacts are written to.
func GetArtifactsHome(cfg *Config) string {
	if cfg == nil || cfg.Lintgate.ArtifactsFolder == "" {
		return filepath.Join(GetHome(cfg), "artifacts")
	}
	return cfg.Lintgate.ArtifactsFolder
}

// IsCI reports whether lintgate runs in CI mode.
func IsCI(cfg *Config) bool {
	return cfg != nil && cfg.Lintgate.Mode == "CI"
}
