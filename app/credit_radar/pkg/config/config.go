package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/fault"
)

// 支持的推理服务
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// 默认值
const (
	DefaultBaseURL        = "https://api.groq.com/openai/v1"
	DefaultModel          = "llama-3.3-70b-versatile"
	DefaultDeepSeekModel  = "deepseek-chat"
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.1"
	DefaultTimeoutSeconds = 60
	DefaultLanguage       = "English"
	DefaultInputDir       = "data/input"
	DefaultOutputDir      = "data/output"
	DefaultRPM            = 30
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Batch       BatchConfig       `yaml:"batch"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// LLMConfig 推理服务相关配置
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	// Language summary 与 rationale 的输出语言
	Language string `yaml:"language"`
}

// BatchConfig 批处理相关配置
type BatchConfig struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 调用推理服务的限流配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	// RPM 每分钟请求数，0 使用默认值，负数不限流
	RPM int `yaml:"rpm"`
}

// LoadConfig 从指定路径加载配置。
// 先加载当前目录的 .env，再读取 yaml 文件（文件不存在时使用默认值），最后应用环境变量覆盖。
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.Complete()
	return &cfg, nil
}

// Complete 应用环境变量覆盖并补齐默认值，供不经过 LoadConfig 构造的配置使用
func (c *Config) Complete() {
	c.applyEnv()
	c.applyDefaults()
}

func (c *Config) applyEnv() {
	setFromEnv(&c.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.LLM.APIKey, "LLM_API_KEY")
	setFromEnv(&c.Log.Level, "LOG_LEVEL")
	setFromEnv(&c.Batch.InputDir, "INPUT_DIR")
	setFromEnv(&c.Batch.OutputDir, "OUTPUT_DIR")

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.APIKey == "" {
		if key := CredentialEnv(c.LLM.Provider); key != "" {
			c.LLM.APIKey = os.Getenv(key)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultBaseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultModel
		}
	case ProviderDeepSeek:
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultDeepSeekModel
		}
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultOllamaBaseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultOllamaModel
		}
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.LLM.Language == "" {
		c.LLM.Language = DefaultLanguage
	}
	if c.Batch.InputDir == "" {
		c.Batch.InputDir = DefaultInputDir
	}
	if c.Batch.OutputDir == "" {
		c.Batch.OutputDir = DefaultOutputDir
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.RPM == 0 {
		c.Concurrency.RPM = DefaultRPM
	}
}

// CredentialEnv 返回 provider 对应的凭证环境变量名，ollama 不需要凭证
func CredentialEnv(provider string) string {
	switch provider {
	case ProviderOpenAI, "":
		return "GROQ_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return ""
	}
}

// HasCredential 当前 provider 是否已具备可用凭证
func (c *Config) HasCredential() bool {
	return CredentialEnv(c.LLM.Provider) == "" || c.LLM.APIKey != ""
}

// Validate 在任何分析开始之前检查配置，缺失项返回 *fault.ConfigurationError
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderDeepSeek, ProviderOllama:
	default:
		return &fault.ConfigurationError{Key: "llm.provider", Reason: fmt.Sprintf("unknown provider %q", c.LLM.Provider)}
	}
	if !c.HasCredential() {
		return &fault.ConfigurationError{Key: CredentialEnv(c.LLM.Provider)}
	}
	if c.LLM.Model == "" {
		return &fault.ConfigurationError{Key: "llm.model"}
	}
	if c.LLM.Temperature < 0 {
		return &fault.ConfigurationError{Key: "llm.temperature", Reason: "must not be negative"}
	}
	return nil
}

// Redacted 用于展示的副本，隐藏凭证
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "***"
	}
	return c
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}
