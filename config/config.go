package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
}

type RedisConfig struct {
	// URL is optional; an empty value selects the in-process cache.
	URL string `mapstructure:"url"`
}

// JWTConfig holds the session token settings. The secret is never logged.
type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretKey"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
	Issuer         string        `mapstructure:"issuer"`
}

type AuthConfig struct {
	// ExposeVerificationToken returns the email verification token in the
	// register response. Development only.
	ExposeVerificationToken bool `mapstructure:"exposeVerificationToken"`
}

type ProviderConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

type LLMConfig struct {
	OpenAI      ProviderConfig `mapstructure:"openai"`
	Gemini      ProviderConfig `mapstructure:"gemini"`
	Claude      ProviderConfig `mapstructure:"claude"`
	MaxTokens   int            `mapstructure:"maxTokens"`
	Temperature float32        `mapstructure:"temperature"`
	Timeout     time.Duration  `mapstructure:"timeout"`
}

// RateLimitConfig is expressed in requests per minute per client IP.
type RateLimitConfig struct {
	Register      int `mapstructure:"register"`
	Login         int `mapstructure:"login"`
	VerifyEmail   int `mapstructure:"verifyEmail"`
	Chat          int `mapstructure:"chat"`
	Conversations int `mapstructure:"conversations"`
	Usage         int `mapstructure:"usage"`
}

type Config struct {
	Mode         string `mapstructure:"mode"`
	Dotenv       string `mapstructure:"dotenv"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
		Redis    RedisConfig    `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort     string        `mapstructure:"HTTPPort"`
		Timeout      time.Duration `mapstructure:"HTTPTimeout"`
		ReadTimeout  time.Duration `mapstructure:"readTimeout"`
		WriteTimeout time.Duration `mapstructure:"writeTimeout"`
		CORSOrigins  []string      `mapstructure:"corsOrigins"`

		// TrustProxyHeaders takes the client address from X-Forwarded-For and
		// X-Real-IP. Only enable behind a proxy that overwrites them.
		TrustProxyHeaders bool `mapstructure:"trustProxyHeaders"`
	} `mapstructure:"server"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// Validate rejects configurations the auth core cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.SecretKey) == "" {
		return errors.New("jwt.secretKey must be set")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("jwt.accessTokenTTL must be positive, got %s", c.JWT.AccessTokenTTL)
	}
	return nil
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// MULTIGENQA_JWT_SECRETKEY overrides jwt.secretKey, and so on.
	v.SetEnvPrefix("MULTIGENQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about, so the
	// secrets that have no default in config.yml are bound explicitly.
	for _, key := range []string{
		"jwt.secretKey",
		"llm.openai.apiKey",
		"llm.gemini.apiKey",
		"llm.claude.apiKey",
		"repositories.redis.url",
	} {
		if err = v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
