package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can use "30m" style values.
type Duration time.Duration

// UnmarshalYAML accepts either a Go duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all settings for the EVIDENT API. Values come from an
// optional YAML file (EVIDENT_CONFIG) with environment variables taking
// precedence.
type Config struct {
	Server Server `yaml:"server"`
	DB     DB     `yaml:"db"`
	JWT    JWT    `yaml:"jwt"`
	Reset  Reset  `yaml:"reset"`
	CORS   CORS   `yaml:"cors"`
	Rate   Rate   `yaml:"rate"`
	RAG    RAG    `yaml:"rag"`
	Admin  Admin  `yaml:"admin"`
}

// Admin describes the bootstrap administrator created on first start.
// Leaving the password empty disables bootstrapping.
type Admin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Server struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

type DB struct {
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

type JWT struct {
	Secret     string   `yaml:"secret"`
	Issuer     string   `yaml:"issuer"`
	AccessTTL  Duration `yaml:"access_ttl"`
	RefreshTTL Duration `yaml:"refresh_ttl"`
}

type Reset struct {
	TokenTTL      Duration `yaml:"token_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

type CORS struct {
	Origins []string `yaml:"origins"`
}

type Rate struct {
	Burst     int `yaml:"burst"`
	PerSecond int `yaml:"per_second"`
}

// RAG carries the retrieval and inference settings referenced by the
// stubbed question-answering surface. Nothing in this repository consumes
// them beyond exposing the configuration shape.
type RAG struct {
	EmbeddingModel      string  `yaml:"embedding_model"`
	EmbeddingDimension  int     `yaml:"embedding_dimension"`
	VectorStorePath     string  `yaml:"vector_store_path"`
	LLMModelPath        string  `yaml:"llm_model_path"`
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    1 << 20,
		},
		DB: DB{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: Duration(30 * time.Minute),
		},
		JWT: JWT{
			Issuer:     "evident",
			AccessTTL:  Duration(30 * time.Minute),
			RefreshTTL: Duration(7 * 24 * time.Hour),
		},
		Reset: Reset{
			TokenTTL:      Duration(time.Hour),
			SweepInterval: Duration(10 * time.Minute),
		},
		CORS: CORS{Origins: []string{"http://localhost:3000"}},
		Rate: Rate{Burst: 20, PerSecond: 10},
		Admin: Admin{Username: "admin", Email: "admin@evident.local"},
		RAG: RAG{
			EmbeddingModel:      "intfloat/e5-base",
			EmbeddingDimension:  768,
			TopK:                5,
			SimilarityThreshold: 0.7,
			ConfidenceThreshold: 0.7,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by EVIDENT_CONFIG, and environment overrides, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("EVIDENT_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt secret is required (EVIDENT_JWT_SECRET)")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("config: token TTLs must be positive")
	}
	if c.Reset.TokenTTL <= 0 {
		return fmt.Errorf("config: reset token TTL must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("EVIDENT_ADDR", cfg.Server.Addr)
	cfg.Server.ReadTimeout = getEnvDuration("EVIDENT_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("EVIDENT_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("EVIDENT_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("EVIDENT_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.DB.DSN = getEnv("EVIDENT_PG_DSN", cfg.DB.DSN)
	cfg.DB.MaxOpenConns = getEnvInt("EVIDENT_PG_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = getEnvInt("EVIDENT_PG_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)

	cfg.JWT.Secret = getEnv("EVIDENT_JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.Issuer = getEnv("EVIDENT_JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.AccessTTL = getEnvDuration("EVIDENT_JWT_ACCESS_TTL", cfg.JWT.AccessTTL)
	cfg.JWT.RefreshTTL = getEnvDuration("EVIDENT_JWT_REFRESH_TTL", cfg.JWT.RefreshTTL)

	cfg.Reset.TokenTTL = getEnvDuration("EVIDENT_RESET_TOKEN_TTL", cfg.Reset.TokenTTL)
	cfg.Reset.SweepInterval = getEnvDuration("EVIDENT_RESET_SWEEP_INTERVAL", cfg.Reset.SweepInterval)

	if origins := getEnv("EVIDENT_CORS_ORIGINS", ""); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		cfg.CORS.Origins = list
	}

	cfg.Rate.Burst = getEnvInt("EVIDENT_RATE_BURST", cfg.Rate.Burst)
	cfg.Rate.PerSecond = getEnvInt("EVIDENT_RATE_PER_SECOND", cfg.Rate.PerSecond)

	cfg.RAG.EmbeddingModel = getEnv("EVIDENT_EMBEDDING_MODEL", cfg.RAG.EmbeddingModel)
	cfg.RAG.VectorStorePath = getEnv("EVIDENT_VECTOR_STORE_PATH", cfg.RAG.VectorStorePath)
	cfg.RAG.LLMModelPath = getEnv("EVIDENT_LLM_MODEL_PATH", cfg.RAG.LLMModelPath)
	cfg.RAG.TopK = getEnvInt("EVIDENT_RAG_TOP_K", cfg.RAG.TopK)

	cfg.Admin.Username = getEnv("EVIDENT_ADMIN_USERNAME", cfg.Admin.Username)
	cfg.Admin.Email = getEnv("EVIDENT_ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Password = getEnv("EVIDENT_ADMIN_PASSWORD", cfg.Admin.Password)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback Duration) Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return Duration(d)
}
