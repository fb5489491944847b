package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int    `mapstructure:"REDIS_CACHE_DB"`
	RedisRegistryDB int    `mapstructure:"REDIS_REGISTRY_DB"`

	// MongoDB configuration (partner and scraping-target catalogs).
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Official (government) channel credentials, shared across consulates.
	OfficialClientID     string `mapstructure:"OFFICIAL_CLIENT_ID"`
	OfficialClientSecret string `mapstructure:"OFFICIAL_CLIENT_SECRET"`

	// Channel timeouts, seconds.
	OfficialTimeoutSec  int `mapstructure:"OFFICIAL_TIMEOUT_SEC"`
	PartnerTimeoutSec   int `mapstructure:"PARTNER_TIMEOUT_SEC"`
	ScrapeNavTimeoutSec int `mapstructure:"SCRAPE_NAV_TIMEOUT_SEC"`

	// PartnerAPIKeys maps partner id -> API key. A partner without a key is
	// excluded from selection rather than causing a failure.
	PartnerAPIKeys map[string]string `mapstructure:"PARTNER_API_KEYS"`

	// ScrapeEnabled maps scraping-target id -> legal-enablement flag. Targets
	// absent from the map fall back to the catalog value.
	ScrapeEnabled map[string]bool `mapstructure:"SCRAPE_ENABLED"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_REGISTRY_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "visaflow")
	viper.SetDefault("OFFICIAL_CLIENT_ID", "")
	viper.SetDefault("OFFICIAL_CLIENT_SECRET", "")
	viper.SetDefault("OFFICIAL_TIMEOUT_SEC", 20)
	viper.SetDefault("PARTNER_TIMEOUT_SEC", 25)
	viper.SetDefault("SCRAPE_NAV_TIMEOUT_SEC", 30)
	viper.SetDefault("PARTNER_API_KEYS", map[string]string{})
	viper.SetDefault("SCRAPE_ENABLED", map[string]bool{})

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
