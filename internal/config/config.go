package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"alcyxob/nutrition-app/internal/nutrition"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Adherence AdherenceConfig `mapstructure:"adherence"`
	Nutrition NutritionConfig `mapstructure:"nutrition"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	ReportExpiry    time.Duration `mapstructure:"report_expiry"` // lifetime of presigned report links
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// AdminConfig lists the emails that get the admin role at registration.
type AdminConfig struct {
	Emails []string `mapstructure:"emails"`
}

// IsAdminEmail reports whether email is configured as an admin, ignoring case.
func (a AdminConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range a.Emails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

type AdherenceConfig struct {
	RiskThreshold    float64 `mapstructure:"risk_threshold"`
	DefaultRangeDays int     `mapstructure:"default_range_days"`
	DetailRangeDays  int     `mapstructure:"detail_range_days"`
}

// NutritionConfig overrides the calculator multipliers and portion sizes.
type NutritionConfig struct {
	Thermogenesis float64 `mapstructure:"thermogenesis"`
	Deficit       float64 `mapstructure:"deficit"`
	ProteinPerKg  float64 `mapstructure:"protein_per_kg"`
	FatPerKg      float64 `mapstructure:"fat_per_kg"`
	ProteinGrams  float64 `mapstructure:"protein_portion_grams"`
	CarbsGrams    float64 `mapstructure:"carbs_portion_grams"`
	FatGrams      float64 `mapstructure:"fat_portion_grams"`
}

// NutritionConstants returns the stock constants with the configured
// overrides applied. Non-positive overrides are ignored.
func (c Config) NutritionConstants() nutrition.Constants {
	k := nutrition.DefaultConstants()
	n := c.Nutrition
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&k.Thermogenesis, n.Thermogenesis)
	set(&k.Deficit, n.Deficit)
	set(&k.ProteinPerKg, n.ProteinPerKg)
	set(&k.FatPerKg, n.FatPerKg)
	set(&k.Portions.Protein, n.ProteinGrams)
	set(&k.Portions.Carbs, n.CarbsGrams)
	set(&k.Portions.Fat, n.FatGrams)
	return k
}

// LoadConfig reads configuration from file or environment variables. A .env
// file next to the config, when present, is loaded into the environment first;
// variables already set win.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "nutrition_app")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.report_expiry", "15m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("admin.emails", []string{})
	v.SetDefault("adherence.risk_threshold", 0.4)
	v.SetDefault("adherence.default_range_days", 7)
	v.SetDefault("adherence.detail_range_days", 30)
	v.SetDefault("nutrition.thermogenesis", 0)
	v.SetDefault("nutrition.deficit", 0)
	v.SetDefault("nutrition.protein_per_kg", 0)
	v.SetDefault("nutrition.fat_per_kg", 0)
	v.SetDefault("nutrition.protein_portion_grams", 0)
	v.SetDefault("nutrition.carbs_portion_grams", 0)
	v.SetDefault("nutrition.fat_portion_grams", 0)

	err = v.ReadInConfig()
	// A missing config file is fine; defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}
