package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Solana        SolanaConfig        `mapstructure:"solana"`
	Wallet        WalletConfig        `mapstructure:"wallet"`
	Host          HostConfig          `mapstructure:"host"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Metadata      MetadataConfig      `mapstructure:"metadata"`
	Demo          DemoConfig          `mapstructure:"demo"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
	// Output is "stderr" or "stdout". CLI flow commands print results on stdout.
	Output string `mapstructure:"output"`
}

// SolanaConfig holds settings for the chain connection.
type SolanaConfig struct {
	RPCURLs      []string      `mapstructure:"rpc_urls"`
	Commitment   string        `mapstructure:"commitment"`
	Cluster      string        `mapstructure:"cluster"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	CheckTTL     time.Duration `mapstructure:"check_ttl"`
}

// WalletConfig selects the wallet bridge. PrivateKey wins over Mnemonic, which wins over Address.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic"`
	Address    string `mapstructure:"address"`
}

// HostConfig holds settings for the host bridge connection.
type HostConfig struct {
	BridgeURL   string        `mapstructure:"bridge_url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// NotificationsConfig holds settings for both sides of the notification endpoint.
type NotificationsConfig struct {
	BackendURL     string        `mapstructure:"backend_url"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	LimiterIdleTTL time.Duration `mapstructure:"limiter_idle_ttl"`
	Title          string        `mapstructure:"title"`
	Body           string        `mapstructure:"body"`
	TargetURL      string        `mapstructure:"target_url"`
}

// MetadataConfig describes the app identity published for host discovery.
type MetadataConfig struct {
	AppURL                string        `mapstructure:"app_url"`
	Title                 string        `mapstructure:"title"`
	Description           string        `mapstructure:"description"`
	ImagePath             string        `mapstructure:"image_path"`
	ButtonTitle           string        `mapstructure:"button_title"`
	AppName               string        `mapstructure:"app_name"`
	SplashImagePath       string        `mapstructure:"splash_image_path"`
	SplashBackgroundColor string        `mapstructure:"splash_background_color"`
	AspectRatio           string        `mapstructure:"aspect_ratio"`
	Revalidate            time.Duration `mapstructure:"revalidate"`
	AssociationHeader     string        `mapstructure:"association_header"`
	AssociationPayload    string        `mapstructure:"association_payload"`
	AssociationSignature  string        `mapstructure:"association_signature"`
}

// DemoConfig holds the fixed demonstration inputs of the wallet and host actions.
type DemoConfig struct {
	Message     string `mapstructure:"message"`
	Destination string `mapstructure:"destination"`
	Lamports    uint64 `mapstructure:"lamports"`
	TokenAmount string `mapstructure:"token_amount"`
	CastText    string `mapstructure:"cast_text"`
	ExternalURL string `mapstructure:"external_url"`
	ProfileURL  string `mapstructure:"profile_url"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix("MINIAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "solana-miniapp")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.output", "stderr")

	v.SetDefault("solana.rpc_urls", []string{"https://api.devnet.solana.com"})
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.cluster", "devnet")
	v.SetDefault("solana.check_timeout", "5s")
	v.SetDefault("solana.check_ttl", "5m")

	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.mnemonic", "")
	v.SetDefault("wallet.address", "")

	v.SetDefault("host.bridge_url", "")
	v.SetDefault("host.dial_timeout", "10s")
	v.SetDefault("host.call_timeout", "0s")

	v.SetDefault("notifications.backend_url", "http://localhost:3000")
	v.SetDefault("notifications.rate_limit_rps", 0.2)
	v.SetDefault("notifications.rate_limit_burst", 1)
	v.SetDefault("notifications.limiter_idle_ttl", "10m")
	v.SetDefault("notifications.title", "Solana Starter")
	v.SetDefault("notifications.body", "This is a test notification")
	v.SetDefault("notifications.target_url", "http://localhost:3000")

	v.SetDefault("metadata.app_url", "http://localhost:3000")
	v.SetDefault("metadata.title", "Farcaster Frames v2 Demo")
	v.SetDefault("metadata.description", "A Farcaster Frames v2 demo app.")
	v.SetDefault("metadata.image_path", "/solaanfarcaster3-2.png")
	v.SetDefault("metadata.button_title", "Launch Town")
	v.SetDefault("metadata.app_name", "Solana Starter by TownSquare")
	v.SetDefault("metadata.splash_image_path", "/townsquarepreview.png")
	v.SetDefault("metadata.splash_background_color", "#f7f7f7")
	v.SetDefault("metadata.aspect_ratio", "3:1")
	v.SetDefault("metadata.revalidate", "300s")
	v.SetDefault("metadata.association_header", "")
	v.SetDefault("metadata.association_payload", "")
	v.SetDefault("metadata.association_signature", "")

	v.SetDefault("demo.message", "Hello from Solana Starter!")
	v.SetDefault("demo.destination", "5onjZQHpbNJytKMUs5L6JPzW6WgRs14P94DzzenjqmKs")
	v.SetDefault("demo.lamports", 1000)
	v.SetDefault("demo.token_amount", "0.01")
	v.SetDefault("demo.cast_text", "Check out this amazing Solana Mini App by TownSquare! 🚀")
	v.SetDefault("demo.external_url", "https://x.com/PlayTownSquare")
	v.SetDefault("demo.profile_url", "https://farcaster.xyz/~/profiles/1374072")
}

func (c SolanaConfig) GetCheckTimeout() time.Duration {
	return c.CheckTimeout
}

func (c SolanaConfig) GetCheckTTL() time.Duration {
	return c.CheckTTL
}

func (c MetadataConfig) GetRevalidate() time.Duration {
	if c.Revalidate <= 0 {
		return 300 * time.Second
	}
	return c.Revalidate
}

// URL joins a path onto the public app URL.
func (c MetadataConfig) URL(path string) string {
	return strings.TrimRight(c.AppURL, "/") + path
}
