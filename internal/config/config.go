package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database  DatabaseConfig   `json:"database"`
	Server    ServerConfig     `json:"server"`
	Audio     AudioConfig      `json:"audio"`
	AI        AIConfig         `json:"ai"`
	Search    SearchConfig     `json:"search"`
	Jobs      JobsConfig       `json:"jobs"`
	FileStore FileStoreConfig  `json:"file_store"`
	LogConfig logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type ServerConfig struct {
	Port            int      `json:"port"`
	JWTSecret       string   `json:"jwt_secret"`
	JWTTTLHours     int      `json:"jwt_ttl_hours"`
	APIPasswordHash string   `json:"api_password_hash"`
	CORSAllowlist   []string `json:"cors_allowlist"`
}

type AudioConfig struct {
	SampleRate int      `json:"sample_rate"`
	Extensions []string `json:"extensions"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type TranscribeConfig struct {
	ProviderConfig
	Language string `json:"language"`
	BeamSize int    `json:"beam_size"`
}

type SpeechConfig struct {
	ProviderConfig
	Voice string `json:"voice"`
}

type EmbedCacheConfig struct {
	LRUSize       int `json:"lru_size"`
	LRUTTLMinutes int `json:"lru_ttl_minutes"`
	DBTTLDays     int `json:"db_ttl_days"`
}

type AIConfig struct {
	Generate      ProviderConfig   `json:"generate"`
	Embed         ProviderConfig   `json:"embed"`
	Transcribe    TranscribeConfig `json:"transcribe"`
	Speech        SpeechConfig     `json:"speech"`
	Temperature   float64          `json:"temperature"`
	Timeout       int              `json:"timeout"`
	MaxInputChars int              `json:"max_input_chars"`
	EmbedCache    EmbedCacheConfig `json:"embed_cache"`
}

type SearchConfig struct {
	TopK            int `json:"top_k"`
	MaxContextChars int `json:"max_context_chars"`
}

type JobsConfig struct {
	EmbeddingBackfillSpec string `json:"embedding_backfill_spec"`
	CacheCleanupSpec      string `json:"cache_cleanup_spec"`
	BackfillBatchSize     int    `json:"backfill_batch_size"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	expandEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv resolves ${VAR} references so secrets can stay out of the file.
func expandEnv(cfg *Config) {
	cfg.Database.DSN = os.ExpandEnv(cfg.Database.DSN)
	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	cfg.Server.JWTSecret = os.ExpandEnv(cfg.Server.JWTSecret)
	cfg.AI.Generate.Data = expandEnvData(cfg.AI.Generate.Data)
	cfg.AI.Embed.Data = expandEnvData(cfg.AI.Embed.Data)
	cfg.AI.Transcribe.Data = expandEnvData(cfg.AI.Transcribe.Data)
	cfg.AI.Speech.Data = expandEnvData(cfg.AI.Speech.Data)
}

func expandEnvData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		return os.ExpandEnv(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = expandEnvData(value)
		}
		return out
	default:
		return data
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.DBName == "") {
		return fmt.Errorf("database.dsn or database.host/dbname is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.AI.Generate.Provider == "" {
		return fmt.Errorf("ai.generate.provider is required")
	}
	if c.AI.Embed.Provider == "" {
		return fmt.Errorf("ai.embed.provider is required")
	}
	if c.AI.Transcribe.Provider == "" {
		return fmt.Errorf("ai.transcribe.provider is required")
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 120
	}
	if c.AI.MaxInputChars == 0 {
		c.AI.MaxInputChars = 100000
	}
	if c.AI.EmbedCache.LRUSize == 0 {
		c.AI.EmbedCache.LRUSize = 4096
	}
	if c.AI.EmbedCache.LRUTTLMinutes == 0 {
		c.AI.EmbedCache.LRUTTLMinutes = 120
	}
	if c.AI.EmbedCache.DBTTLDays == 0 {
		c.AI.EmbedCache.DBTTLDays = 30
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if len(c.Audio.Extensions) == 0 {
		c.Audio.Extensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}
	}
	if c.Search.TopK == 0 {
		c.Search.TopK = 5
	}
	if c.Search.MaxContextChars == 0 {
		c.Search.MaxContextChars = 8000
	}
	if c.Jobs.EmbeddingBackfillSpec == "" {
		c.Jobs.EmbeddingBackfillSpec = "*/5 * * * *"
	}
	if c.Jobs.CacheCleanupSpec == "" {
		c.Jobs.CacheCleanupSpec = "30 3 * * *"
	}
	if c.Jobs.BackfillBatchSize == 0 {
		c.Jobs.BackfillBatchSize = 32
	}
	if c.Server.JWTTTLHours == 0 {
		c.Server.JWTTTLHours = 72
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
		c.FileStore.Data = map[string]interface{}{"dir": "data/files"}
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	return nil
}
