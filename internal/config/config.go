package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Logger     Logger     `mapstructure:"logger"`
	Solana     Solana     `mapstructure:"solana"`
	Polymarket Polymarket `mapstructure:"polymarket"`
	Kalshi     Kalshi     `mapstructure:"kalshi"`
	Providers  Providers  `mapstructure:"providers"`
}

// Server holds the configuration for the HTTP server.
type Server struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Solana holds the Solana venue credentials.
type Solana struct {
	RPCURL     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`
}

// Polymarket holds the Polymarket venue credentials.
type Polymarket struct {
	APIKey     string `mapstructure:"api_key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// Kalshi holds the Kalshi venue credentials.
type Kalshi struct {
	APIKey     string `mapstructure:"api_key"`
	PrivateKey string `mapstructure:"private_key"`
}

// Providers holds the model provider API keys.
type Providers struct {
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// PlatformCredentials returns a credentials bundle for every venue that has
// configuration, in registration order.
func (c *Config) PlatformCredentials() []*models.PlatformCredentials {
	var creds []*models.PlatformCredentials

	if c.Solana.RPCURL != "" || c.Solana.PrivateKey != "" {
		creds = append(creds, &models.PlatformCredentials{
			Platform:   models.PlatformSolana,
			RPCURL:     c.Solana.RPCURL,
			PrivateKey: c.Solana.PrivateKey,
		})
	}
	if c.Polymarket.APIKey != "" {
		creds = append(creds, &models.PlatformCredentials{
			Platform:   models.PlatformPolymarket,
			APIKey:     c.Polymarket.APIKey,
			Secret:     c.Polymarket.Secret,
			Passphrase: c.Polymarket.Passphrase,
		})
	}
	if c.Kalshi.APIKey != "" {
		creds = append(creds, &models.PlatformCredentials{
			Platform:   models.PlatformKalshi,
			APIKey:     c.Kalshi.APIKey,
			PrivateKey: c.Kalshi.PrivateKey,
		})
	}
	return creds
}
