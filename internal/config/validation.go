package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// ValidateConfig checks if the global configurations have valid values and completes them from the environment.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLintgateConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: lintgate directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateAnalysisConfig(&cfg.Analysis); err != nil {
		return fmt.Errorf("YAML global config: analysis directive is invalid: %w", err)
	}
	return nil
}

// ValidateLintgateConfig resolves the lintgate folders from environment variables or defaults.
func ValidateLintgateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("lintgate configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	folders := []struct {
		folder *string
		env    string
		sub    string
	}{
		{&cfg.Lintgate.PluginsFolder, "LINTGATE_PLUGINS_FOLDER", "plugins"},
		{&cfg.Lintgate.TempFolder, "LINTGATE_TEMP_FOLDER", "tmp"},
		{&cfg.Lintgate.CacheFolder, "LINTGATE_CACHE_FOLDER", "cache"},
		{&cfg.Lintgate.ArtifactsFolder, "LINTGATE_ARTIFACTS_FOLDER", "artifacts"},
	}
	for _, f := range folders {
		if err := updateFolder(f.folder, f.env, f.sub, cfg); err != nil {
			return fmt.Errorf("failed to update %s folder: %w", f.sub, err)
		}
	}
	updateMode(cfg)
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 10*time.Minute); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// ValidateAnalysisConfig fills defaults of the analysis section and checks the encodings.
func ValidateAnalysisConfig(analysis *Analysis) error {
	if analysis == nil {
		return fmt.Errorf("analysis configuration is nil")
	}
	analysis.Engine = SetThen(analysis.Engine, DefaultEngine)
	analysis.TargetDirectory = SetThen(analysis.TargetDirectory, DefaultTargetDirectory)
	analysis.Encoding = SetThen(analysis.Encoding, DefaultEncoding)
	analysis.OutputEncoding = SetThen(analysis.OutputEncoding, analysis.Encoding)

	for name, enc := range map[string]string{"encoding": analysis.Encoding, "output_encoding": analysis.OutputEncoding} {
		if _, err := htmlindex.Get(enc); err != nil {
			return fmt.Errorf("%s %q is not a known character set: %w", name, enc, err)
		}
	}
	if analysis.Threads < 0 {
		return fmt.Errorf("threads must not be negative: %d", analysis.Threads)
	}
	if analysis.RepositoryURL != "" {
		if _, err := url.ParseRequestURI(analysis.RepositoryURL); err != nil {
			return fmt.Errorf("repository_url %q is invalid: %w", analysis.RepositoryURL, err)
		}
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if !strings.Contains(proxy.Host, "://") {
		proxy.Host = "http://" + proxy.Host
	}
	proxy.Host = strings.TrimRight(proxy.Host, "/")
	if _, err := url.Parse(proxy.Host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", proxy.Port)
	}
	return nil
}

// updateHome updates the HomeFolder from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if home := os.Getenv("LINTGATE_HOME"); home != "" {
		cfg.Lintgate.HomeFolder = home
	} else if cfg.Lintgate.HomeFolder == "" {
		homeFolder, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Lintgate.HomeFolder = filepath.Join(homeFolder, ".lintgate")
	}

	expanded, err := expandPath(cfg.Lintgate.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand home path %q: %w", cfg.Lintgate.HomeFolder, err)
	}
	cfg.Lintgate.HomeFolder = expanded
	return nil
}

// updateFolder updates a folder path from its environment variable or derives it from the home folder.
// Folders are created lazily by the code that writes into them.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(GetHome(cfg), defaultSubFolder)
	}

	expanded, err := expandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expanded
	return nil
}

// updateMode updates the Mode field based on environment variables.
func updateMode(cfg *Config) {
	if os.Getenv("LINTGATE_MODE") == "CI" || os.Getenv("CI") == "true" {
		cfg.Lintgate.Mode = "CI"
		return
	}

	if envVarValue := os.Getenv("LINTGATE_MODE"); envVarValue != "" {
		cfg.Lintgate.Mode = envVarValue
		return
	}

	cfg.Lintgate.Mode = "user"
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
