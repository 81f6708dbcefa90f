package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	app_errors "relay-chat/internal/errors"
)

// Config holds every setting read at startup. The three connection
// parameters are mandatory; everything else has a default.
type Config struct {
	APIBaseURL  string `mapstructure:"API_BASE_URL" validate:"required,url"`
	APIKey      string `mapstructure:"API_KEY" validate:"required"`
	WorkspaceID string `mapstructure:"WORKSPACE_ID" validate:"required,excludesall=/?#%"`

	AppPort            int           `mapstructure:"APP_PORT" validate:"min=1,max=65535"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	Locale             string        `mapstructure:"LOCALE"`
	HTTPTimeout        time.Duration `mapstructure:"HTTP_TIMEOUT" validate:"min=0"`
	DebugDBPath        string        `mapstructure:"DEBUG_DB_PATH"`
	DebugBufferSize    int           `mapstructure:"DEBUG_BUFFER_SIZE" validate:"min=1"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	configFile string
}

// legacyKeys maps the variable names used by earlier AnythingLLM
// deployments onto the canonical keys.
var legacyKeys = map[string]string{
	"API_BASE_URL": "ANYTHINGLLM_API_URL",
	"API_KEY":      "ANYTHINGLLM_API_KEY",
	"WORKSPACE_ID": "ANYTHINGLLM_WORKSPACE_ID",
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		// Report failures with the environment variable name the operator sets.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// LoadConfig reads the configuration from an optional .env file in the
// working directory and from the environment. Environment variables win.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetDefault("APP_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOCALE", "en")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("DEBUG_DB_PATH", "")
	v.SetDefault("DEBUG_BUFFER_SIZE", 50)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})

	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, legacy := range legacyKeys {
		if err := v.BindEnv(key, key, legacy); err != nil {
			return nil, fmt.Errorf("%w: binding %s: %v", app_errors.ErrConfiguration, key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", app_errors.ErrConfiguration, err)
		}
	}

	// A .env file written for earlier deployments only carries the
	// legacy names.
	for key, legacy := range legacyKeys {
		if strings.TrimSpace(v.GetString(key)) == "" && v.IsSet(legacy) {
			v.Set(key, v.GetString(legacy))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrConfiguration, err)
	}
	cfg.normalize()
	cfg.configFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.WorkspaceID = strings.TrimSpace(c.WorkspaceID)
	c.Locale = strings.TrimSpace(c.Locale)
	c.DebugDBPath = strings.TrimSpace(c.DebugDBPath)
}

// Validate checks the struct tags and returns an ErrConfiguration listing
// every offending key.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", app_errors.ErrConfiguration, err)
	}

	var msgs []string
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("environment variable %s is not set", fieldErr.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("environment variable %s failed the '%s' check", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", app_errors.ErrConfiguration, strings.Join(msgs, "; "))
}

// ConfigFileUsed is the .env file that was read, or "" when settings came
// from the environment only.
func (c *Config) ConfigFileUsed() string {
	return c.configFile
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.AppPort)
}

// MaskedAPIKey returns the key with everything but its edges hidden.
func (c *Config) MaskedAPIKey() string {
	if len(c.APIKey) > 8 {
		return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
	}
	return "***"
}
