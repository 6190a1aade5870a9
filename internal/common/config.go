package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig   `yaml:"api"`
	OAuth      OAuthConfig `yaml:"oauth"`
	Files      FileConfig  `yaml:"files"`
	EntitySets []string    `yaml:"entity_sets"`
	HTTP       HTTPConfig  `yaml:"http"`
}

// APIConfig holds tenant hosts and static credentials
type APIConfig struct {
	Server      string `yaml:"server"`
	TestServer  string `yaml:"test_server"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	BearerToken string `yaml:"bearer_token"`
}

// OAuthConfig holds the SAML2-bearer token exchange parameters
type OAuthConfig struct {
	ClientID   string `yaml:"client_id"`
	UserID     string `yaml:"user_id"`
	CompanyID  string `yaml:"company_id"`
	TokenURL   string `yaml:"token_url"`
	IDPURL     string `yaml:"idp_url"`
	PrivateKey string `yaml:"private_key"`
}

// FileConfig holds workbook paths
type FileConfig struct {
	TemplatePath   string `yaml:"template"`
	OutputPath     string `yaml:"output"`
	DictionaryPath string `yaml:"dictionary"`
}

// HTTPConfig holds client transport settings
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoadConfig resolves configuration in three layers: built-in defaults, an
// optional YAML file, then environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			Server:     "api44.sapsf.com",
			TestServer: "api44.sapsf.com",
		},
		OAuth: OAuthConfig{
			TokenURL: "https://apidemo.sapsf.com/oauth/token",
			IDPURL:   "https://apidemo.sapsf.com/oauth/idp",
		},
		Files: FileConfig{
			TemplatePath:   "2.SF Query Integration Standard API TemplateV1.xlsx",
			OutputPath:     "SF_API_Documentation_Generated.xlsx",
			DictionaryPath: "3.SF EC Field API Attribute.xlsx",
		},
		HTTP: HTTPConfig{Timeout: 45 * time.Second},
	}
}

func (c *Config) applyEnv() {
	c.API.Server = getEnv("SF_API_SERVER", c.API.Server)
	c.API.TestServer = getEnv("SF_TEST_API_SERVER", c.API.TestServer)
	c.API.Username = getEnv("SF_USERNAME", c.API.Username)
	c.API.Password = getEnv("SF_PASSWORD", c.API.Password)
	c.API.BearerToken = getEnv("SF_BEARER_TOKEN", c.API.BearerToken)

	c.OAuth.ClientID = getEnv("SF_CLIENT_ID", c.OAuth.ClientID)
	c.OAuth.UserID = getEnv("SF_USER_ID", c.OAuth.UserID)
	c.OAuth.CompanyID = getEnv("SF_COMPANY_ID", c.OAuth.CompanyID)
	c.OAuth.TokenURL = getEnv("SF_TOKEN_URL", c.OAuth.TokenURL)
	c.OAuth.IDPURL = getEnv("SF_IDP_URL", c.OAuth.IDPURL)
	c.OAuth.PrivateKey = getEnv("SF_PRIVATE_KEY", c.OAuth.PrivateKey)

	c.Files.TemplatePath = getEnv("SF_TEMPLATE_FILE", c.Files.TemplatePath)
	c.Files.OutputPath = getEnv("SF_OUTPUT_FILE", c.Files.OutputPath)
	c.Files.DictionaryPath = getEnv("SF_DICTIONARY_FILE", c.Files.DictionaryPath)

	c.HTTP.Timeout = getEnvAsDuration("SF_HTTP_TIMEOUT", c.HTTP.Timeout)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Files.TemplatePath == "" {
		return NewAppError("CONFIG_ERROR", "template workbook path is required", ErrInvalidInput)
	}
	if c.Files.OutputPath == "" {
		return NewAppError("CONFIG_ERROR", "output path is required", ErrInvalidInput)
	}
	hasBasic := c.API.Username != "" && c.API.Password != ""
	hasBearer := c.API.BearerToken != ""
	hasOAuth := c.OAuth.ClientID != "" && c.OAuth.UserID != ""
	if !hasBasic && !hasBearer && !hasOAuth {
		return NewAppError("CONFIG_ERROR", "at least one authentication method is required", ErrInvalidInput)
	}
	return nil
}
