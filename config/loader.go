package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderConfig holds optional file overrides for LoadConfig.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads configuration for a service into the provided cfg struct.
// It searches for config.yml and .env files in standard locations, binds
// environment variables, and unmarshals the result into cfg.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile(serviceName)
	}
	if lc.EnvFile == "" {
		lc.EnvFile = findEnvFile(serviceName)
	}

	v := viper.New()

	// YAML config file is the base layer.
	if lc.ConfigFile != "" && fileExists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Printf("[config] warning: failed to load config file %s: %v\n", lc.ConfigFile, err)
		}
	}

	// .env file populates the process environment before binding.
	if lc.EnvFile != "" && fileExists(lc.EnvFile) {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			fmt.Printf("[config] warning: failed to load .env file %s: %v\n", lc.EnvFile, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v, cfg, "")

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnvKeys walks the config struct and binds every mapstructure key so
// AutomaticEnv picks up variables that have no file-based default.
func bindEnvKeys(v *viper.Viper, cfg interface{}, prefix string) {
	t := reflect.TypeOf(cfg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		tag = strings.Split(tag, ",")[0]

		key := tag
		if tag == "" && strings.Contains(field.Tag.Get("mapstructure"), "squash") {
			key = prefix
		} else if prefix != "" {
			key = prefix + "." + tag
		}

		ft := field.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.String() != "time.Duration" {
			bindEnvKeys(v, reflect.New(ft).Interface(), key)
			continue
		}
		if key != "" {
			_ = v.BindEnv(key)
		}
	}
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile(serviceName string) string {
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
	for _, path := range searchPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env files in standard locations.
func findEnvFile(serviceName string) string {
	searchPaths := []string{
		fmt.Sprintf(".env.%s", serviceName),
		".env",
	}
	for _, path := range searchPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
