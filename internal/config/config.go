package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("configuration error")

type AppCfg struct {
	Name string `mapstructure:"name" validate:"required"`
	// Version is reported as service.version on traces and metrics.
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"oneof=local development staging production"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	// PublicBaseURL prefixes image URLs returned to clients.
	PublicBaseURL string `mapstructure:"public_base_url"`
	Timezone      string `mapstructure:"timezone" validate:"required"`
}

type LogCfg struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type DatabaseCfg struct {
	DSN         string `mapstructure:"dsn" validate:"required"`
	MaxOpen     int    `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int    `mapstructure:"max_idle" validate:"min=0"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	EnableTLS   bool   `mapstructure:"enable_tls"`
}

type RedisCfg struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	PoolSize  int    `mapstructure:"pool_size"`
	EnableTLS bool   `mapstructure:"enable_tls"`
}

type RabbitMQCfg struct {
	URL          string `mapstructure:"url"`
	EnableTLS    bool   `mapstructure:"enable_tls"`
	Exchange     string `mapstructure:"exchange"`
	RoutingKey   string `mapstructure:"routing_key"`
	Queue        string `mapstructure:"queue"`
	Prefetch     int    `mapstructure:"prefetch"`
	ConsumerSize int    `mapstructure:"consumer_size"`
}

type S3Cfg struct {
	Endpoint         string `mapstructure:"endpoint"`
	Region           string `mapstructure:"region"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	UsePathStyle     bool   `mapstructure:"use_path_style"`
	PresignExpireSec int    `mapstructure:"presign_expire_sec"`
}

type StorageCfg struct {
	// Backend is "local" or "s3".
	Backend string `mapstructure:"backend" validate:"oneof=local s3"`
	Root    string `mapstructure:"root"`
	// URLPrefix is where the static file server exposes Root.
	URLPrefix string `mapstructure:"url_prefix"`
}

type OpenAICfg struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicCfg struct {
	APIKey string `mapstructure:"api_key"`
}

type GeminiCfg struct {
	APIKey string `mapstructure:"api_key"`
}

type LLMCfg struct {
	// Provider selects the chat/vision backend: openai, anthropic or gemini.
	Provider     string        `mapstructure:"provider" validate:"oneof=openai anthropic gemini"`
	VisionModel  string        `mapstructure:"vision_model" validate:"required"`
	ChatModel    string        `mapstructure:"chat_model" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout"`
	OpenAI       OpenAICfg     `mapstructure:"openai"`
	Anthropic    AnthropicCfg  `mapstructure:"anthropic"`
	Gemini       GeminiCfg     `mapstructure:"gemini"`
	MaxRetries   int           `mapstructure:"max_retries"`
	AnalysisTemp float64       `mapstructure:"analysis_temperature"`
}

type EmbeddingCfg struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model" validate:"required"`
	Dim       int           `mapstructure:"dim" validate:"min=1"`
	BatchSize int           `mapstructure:"batch_size" validate:"min=1"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type RerankerCfg struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DetectorCfg struct {
	URL           string        `mapstructure:"url" validate:"required"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	FontPath      string        `mapstructure:"font_path"`
}

type ClassifierCfg struct {
	BaseURL             string        `mapstructure:"base_url" validate:"required"`
	Token               string        `mapstructure:"token"`
	ModelName           string        `mapstructure:"model_name" validate:"required"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Required            bool          `mapstructure:"required"`
	AmbientKeywordFiles []string      `mapstructure:"ambient_keyword_files"`
	AmbientLimit        int           `mapstructure:"ambient_limit"`
}

type RAGCfg struct {
	Enabled        bool   `mapstructure:"enabled"`
	Table          string `mapstructure:"table"`
	HNSWM          int    `mapstructure:"hnsw_m"`
	EfConstruction int    `mapstructure:"ef_construction"`
	EfSearch       int    `mapstructure:"ef_search"`
	CandidatePool  int    `mapstructure:"candidate_pool"`
	RRFK           int    `mapstructure:"rrf_k"`
	CorpusDir      string `mapstructure:"corpus_dir"`
}

type AnalysisCfg struct {
	// Dispatch is "inline" (in-process pool) or "rabbitmq".
	Dispatch      string        `mapstructure:"dispatch" validate:"oneof=inline rabbitmq"`
	Workers       int           `mapstructure:"workers" validate:"min=1"`
	EstimatedTime string        `mapstructure:"estimated_time"`
	MarkerTTL     time.Duration `mapstructure:"marker_ttl"`
	MaxUploadMB   int           `mapstructure:"max_upload_mb" validate:"min=1"`
}

type ChatCfg struct {
	WindowSize         int     `mapstructure:"window_size" validate:"min=1"`
	SummarizeThreshold int     `mapstructure:"summarize_threshold" validate:"min=1"`
	SummaryMaxChars    int     `mapstructure:"summary_max_chars" validate:"min=1"`
	GreetingMaxChars   int     `mapstructure:"greeting_max_chars" validate:"min=1"`
	Temperature        float64 `mapstructure:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens" validate:"min=1"`
	PromptDir          string  `mapstructure:"prompt_dir"`
}

type AuthCfg struct {
	TokenPrefix  string `mapstructure:"token_prefix" validate:"required"`
	SecretPepper string `mapstructure:"secret_pepper" validate:"required"`
}

type TelemetryCfg struct {
	Enabled      bool    `mapstructure:"enabled"`
	OtlpEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	App        AppCfg        `mapstructure:"app"`
	Log        LogCfg        `mapstructure:"log"`
	Database   DatabaseCfg   `mapstructure:"database"`
	Redis      RedisCfg      `mapstructure:"redis"`
	RabbitMQ   RabbitMQCfg   `mapstructure:"rabbitmq"`
	S3         S3Cfg         `mapstructure:"s3"`
	Storage    StorageCfg    `mapstructure:"storage"`
	LLM        LLMCfg        `mapstructure:"llm"`
	Embedding  EmbeddingCfg  `mapstructure:"embedding"`
	Reranker   RerankerCfg   `mapstructure:"reranker"`
	Detector   DetectorCfg   `mapstructure:"detector"`
	Classifier ClassifierCfg `mapstructure:"classifier"`
	RAG        RAGCfg        `mapstructure:"rag"`
	Analysis   AnalysisCfg   `mapstructure:"analysis"`
	Chat       ChatCfg       `mapstructure:"chat"`
	Auth       AuthCfg       `mapstructure:"auth"`
	Telemetry  TelemetryCfg  `mapstructure:"telemetry"`
}

// envBindings maps config keys to the unprefixed environment variables the
// deployment already exports.
var envBindings = map[string]string{
	"llm.openai.api_key":    "OPENAI_API_KEY",
	"llm.anthropic.api_key": "ANTHROPIC_API_KEY",
	"llm.gemini.api_key":    "GEMINI_API_KEY",
	"classifier.token":      "HF_TOKEN",
	"classifier.model_name": "HF_MODEL_NAME",
	"database.dsn":          "DATABASE_DSN",
	"redis.addr":            "REDIS_ADDR",
	"rabbitmq.url":          "RABBITMQ_URL",
}

// Load reads defaults, an optional config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom is Load against a caller-supplied viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("HTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, "HTP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("%w: bind %s: %v", ErrConfiguration, env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Analysis.Dispatch == "rabbitmq" && c.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required when analysis.dispatch=rabbitmq")
	}
	if c.Storage.Backend == "s3" && c.S3.Bucket == "" {
		return errors.New("s3.bucket is required when storage.backend=s3")
	}
	if c.Storage.Backend == "local" && c.Storage.Root == "" {
		return errors.New("storage.root is required when storage.backend=local")
	}
	if c.Chat.SummarizeThreshold <= c.Chat.WindowSize {
		return fmt.Errorf("chat.summarize_threshold (%d) must exceed chat.window_size (%d)", c.Chat.SummarizeThreshold, c.Chat.WindowSize)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}
