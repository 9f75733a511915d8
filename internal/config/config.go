package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LLM       LLMConfig       `yaml:"llm"`
	Guard     GuardConfig     `yaml:"guard"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	s := ""
	for i > 0 {
		s = string(rune('0'+i%10)) + s
		i /= 10
	}
	return s
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

// LLMConfig configures the shared OpenAI-compatible capability client used
// for security auditing, task classification, completion, and embeddings.
type LLMConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	ClassifierModel string        `yaml:"classifier_model"`
	CompletionModel string        `yaml:"completion_model"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	Timeout         time.Duration `yaml:"timeout"`
}

type GuardConfig struct {
	// ConfidenceThreshold is the inclusive acceptance boundary for task
	// classification confidence.
	ConfidenceThreshold float64               `yaml:"confidence_threshold"`
	Injection           InjectionFilterConfig `yaml:"injection"`
	Secrets             SecretsFilterConfig   `yaml:"secrets"`
	Policy              PolicyFilterConfig    `yaml:"policy"`
}

type InjectionFilterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BlockThreshold float64 `yaml:"block_threshold"`
}

type SecretsFilterConfig struct {
	Enabled bool `yaml:"enabled"`
}

type PolicyFilterConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type IngestConfig struct {
	// RenderDPI is the rasterization resolution for PDF pages that need OCR.
	RenderDPI    float64 `yaml:"render_dpi"`
	OCRLanguages string  `yaml:"ocr_languages"`
	MaxFileBytes int64   `yaml:"max_file_bytes"`
	MaxFiles     int     `yaml:"max_files"`
	TempDir      string  `yaml:"temp_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "assistant",
			User:            "assistant",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		LLM: LLMConfig{
			BaseURL:         "https://api.openai.com/v1",
			ClassifierModel: "gpt-4o-mini",
			CompletionModel: "gpt-4o-mini",
			EmbeddingModel:  "text-embedding-3-small",
			Timeout:         60 * time.Second,
		},
		Guard: GuardConfig{
			ConfidenceThreshold: 0.6,
			Injection: InjectionFilterConfig{
				Enabled:        true,
				BlockThreshold: 0.9,
			},
			Secrets: SecretsFilterConfig{Enabled: true},
			Policy: PolicyFilterConfig{
				Enabled:           false,
				BundlePath:        "/etc/assistant/policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
		Ingest: IngestConfig{
			RenderDPI:    300,
			OCRLanguages: "eng",
			MaxFileBytes: 25 << 20,
			MaxFiles:     10,
		},
	}
}
