package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	// Auth maps tenant -> API key. Empty disables authentication.
	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	AI struct {
		APIKey  string        `yaml:"apiKey"`
		BaseURL string        `yaml:"baseURL"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Mail struct {
		Endpoint         string        `yaml:"endpoint"`
		ServiceID        string        `yaml:"serviceID"`
		TemplatePassword string        `yaml:"templatePassword"`
		TemplateNotice   string        `yaml:"templateNotice"`
		PublicKey        string        `yaml:"publicKey"`
		PrivateKey       string        `yaml:"privateKey"`
		SenderName       string        `yaml:"senderName"`
		SimulatedDelay   time.Duration `yaml:"simulatedDelay"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"mail"`

	// Database is optional; an empty driver keeps everything in memory.
	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load reads config.yaml, applies environment overrides and defaults.
// A missing file is not an error: the service runs on defaults and env.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.AI.APIKey, "THREAT_AI_API_KEY")
	set(&c.AI.BaseURL, "THREAT_AI_BASE_URL")
	set(&c.AI.Model, "THREAT_AI_MODEL")
	set(&c.Mail.ServiceID, "EMAILJS_SERVICE_ID")
	set(&c.Mail.TemplatePassword, "EMAILJS_TEMPLATE_PASSWORD")
	set(&c.Mail.TemplateNotice, "EMAILJS_TEMPLATE_NOTICE")
	set(&c.Mail.PublicKey, "EMAILJS_PUBLIC_KEY")
	set(&c.Mail.PrivateKey, "EMAILJS_PRIVATE_KEY")
	set(&c.Database.Password, "DB_PASSWORD")
	set(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Mail.SenderName == "" {
		c.Mail.SenderName = "Threat Console"
	}
	if c.Mail.SimulatedDelay == 0 {
		c.Mail.SimulatedDelay = 1800 * time.Millisecond
	}
	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = 15 * time.Second
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be mysql, postgres or empty, got %q", c.Database.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Mail.SimulatedDelay < 0 {
		return fmt.Errorf("mail.simulatedDelay must not be negative")
	}
	return nil
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres DSN
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
