// Package config carga la configuración del servicio: env (+ .env) primero,
// archivo YAML opcional después.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App AppConfig `mapstructure:"app"`
	Log LogConfig `mapstructure:"log"`
	DB  DBConfig  `mapstructure:"db"`
	LLM LLMConfig `mapstructure:"llm"`
}

type AppConfig struct {
	Name         string        `mapstructure:"name"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	// Vacío = catálogo de razas in-memory.
	DSN string `mapstructure:"dsn"`
}

type LLMConfig struct {
	// Provider: gemini | ollama | openai
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`

	Gemini GeminiConfig `mapstructure:"gemini"`
	Ollama OllamaConfig `mapstructure:"ollama"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"` // opcional (proxy / tests)
}

type OllamaConfig struct {
	Host string `mapstructure:"host"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// envBindings: key -> env vars (en orden de prioridad).
var envBindings = map[string][]string{
	"app.name":            {"APP_NAME"},
	"app.port":            {"PORT"},
	"app.read_timeout":    {"READ_TIMEOUT"},
	"app.write_timeout":   {"WRITE_TIMEOUT"},
	"app.session_ttl":     {"SESSION_TTL"},
	"log.level":           {"LOG_LEVEL"},
	"log.format":          {"LOG_FORMAT"},
	"db.dsn":              {"DB_DSN"},
	"llm.provider":        {"LLM_PROVIDER"},
	"llm.model":           {"LLM_MODEL"},
	"llm.gemini.api_key":  {"GEMINI_API_KEY", "API_KEY"},
	"llm.gemini.base_url": {"GEMINI_BASE_URL"},
	"llm.ollama.host":     {"OLLAMA_HOST"},
	"llm.openai.api_key":  {"OPENAI_API_KEY"},
	"llm.openai.base_url": {"OPENAI_BASE_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vet-lab-report")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.read_timeout", 30*time.Second)
	// El análisis espera al LLM sin timeout propio; el write timeout solo
	// evita conexiones colgadas para siempre.
	v.SetDefault("app.write_timeout", 10*time.Minute)
	v.SetDefault("app.session_ttl", 12*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
}

// Load arma la config. cfgFile vacío => busca vetreport.yaml en "." (opcional).
// Devuelve el viper usado para poder hacer Watch después.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	// .env es opcional (modo dev).
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if strings.TrimSpace(cfgFile) != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("vetreport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.App.Port = strings.TrimPrefix(strings.TrimSpace(cfg.App.Port), ":")
	return &cfg, nil
}

// Addr devuelve ":<port>" para http.Server.
func (c *Config) Addr() string {
	return ":" + c.App.Port
}

// Watch recarga el archivo de config cuando cambia. Sin archivo no hace nada.
func Watch(v *viper.Viper, onChange func(*Config, fsnotify.Event)) bool {
	if v == nil || v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			return
		}
		onChange(cfg, e)
	})
	v.WatchConfig()
	return true
}
