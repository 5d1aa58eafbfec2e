package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	http "github.com/wesleyorama2/curlkit/http"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// InvalidConfigError collects the validation errors of one file
type InvalidConfigError struct {
	Path   string
	Errors []ValidationError
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(msgs, "; "))
}

var (
	proxyTypes    = []string{"http", "https", "socks4", "socks5"}
	outputFormats = []string{"text", "json", "yaml"}
)

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) []ValidationError {
	var errors []ValidationError

	for _, field := range []struct{ path, value string }{
		{"defaults.timeout", config.Defaults.Timeout},
		{"defaults.connectTimeout", config.Defaults.ConnectTimeout},
	} {
		d, err := parseOptionalDuration(field.value)
		if err != nil {
			errors = append(errors, ValidationError{
				Path:    field.path,
				Message: fmt.Sprintf("invalid duration %q", field.value),
			})
		} else if d < 0 {
			errors = append(errors, ValidationError{
				Path:    field.path,
				Message: "duration must not be negative",
			})
		}
	}

	if config.Defaults.MaxRedirects < 0 {
		errors = append(errors, ValidationError{
			Path:    "defaults.maxRedirects",
			Message: "maxRedirects must not be negative",
		})
	}
	if config.Defaults.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Path:    "defaults.maxConnections",
			Message: "maxConnections must not be negative",
		})
	}

	for _, name := range sortedKeys(config.Defaults.Headers) {
		if strings.TrimSpace(name) == "" || strings.Contains(name, ":") {
			errors = append(errors, ValidationError{
				Path:    "defaults.headers",
				Message: fmt.Sprintf("invalid header name %q", name),
			})
		}
	}

	if config.Proxy.URL != "" {
		if _, err := http.ParseProxy(config.Proxy.URL); err != nil {
			errors = append(errors, ValidationError{
				Path:    "proxy.url",
				Message: err.Error(),
			})
		}
	}
	if config.Proxy.Type != "" && !stringInSlice(strings.ToLower(config.Proxy.Type), proxyTypes) {
		errors = append(errors, ValidationError{
			Path:    "proxy.type",
			Message: fmt.Sprintf("invalid proxy type '%s', must be one of: %s", config.Proxy.Type, strings.Join(proxyTypes, ", ")),
		})
	}
	if (config.Proxy.Username == "") != (config.Proxy.Password == "") {
		errors = append(errors, ValidationError{
			Path:    "proxy",
			Message: "username and password must be set together",
		})
	}

	if config.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(config.Log.Level)); err != nil {
			errors = append(errors, ValidationError{
				Path:    "log.level",
				Message: fmt.Sprintf("invalid log level '%s'", config.Log.Level),
			})
		}
	}
	if config.Log.MaxSizeMB < 0 || config.Log.MaxBackups < 0 || config.Log.MaxAgeDays < 0 {
		errors = append(errors, ValidationError{
			Path:    "log",
			Message: "rotation limits must not be negative",
		})
	}

	if config.Output.Format != "" && !stringInSlice(config.Output.Format, outputFormats) {
		errors = append(errors, ValidationError{
			Path:    "output.format",
			Message: fmt.Sprintf("invalid output format '%s', must be one of: %s", config.Output.Format, strings.Join(outputFormats, ", ")),
		})
	}

	envNames := make([]string, 0, len(config.Environments))
	for name := range config.Environments {
		envNames = append(envNames, name)
	}
	sort.Strings(envNames)
	for _, name := range envNames {
		if config.Environments[name].BaseURL == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("environments.%s.baseUrl", name),
				Message: "baseUrl is required",
			})
		}
	}

	return errors
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringInSlice checks if a string is in a slice
func stringInSlice(str string, slice []string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
