package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

type Prompts struct {
	Extraction string `toml:"extraction"`
	Judge      string `toml:"judge"`
	Paraphrase string `toml:"paraphrase"`
	Relevance  string `toml:"relevance"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

// GraphConfig points at a Bolt-speaking store (Neo4j or Memgraph) holding a KG mirror.
type GraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type KGConfig struct {
	Backend        string `toml:"backend" validate:"oneof=sparql graph"`
	SPARQLEndpoint string `toml:"sparql_endpoint" validate:"omitempty,url"`
	SourceName     string `toml:"source_name" validate:"required"`
	MaxTriples     int    `toml:"max_triples" validate:"gt=0"`
}

type LinkingConfig struct {
	Linkers             []string `toml:"linkers" validate:"dive,oneof=wikidata lookup spotlight heuristic"`
	WikidataEndpoint    string   `toml:"wikidata_endpoint" validate:"omitempty,url"`
	LookupEndpoint      string   `toml:"lookup_endpoint" validate:"omitempty,url"`
	SpotlightEndpoint   string   `toml:"spotlight_endpoint" validate:"omitempty,url"`
	SpotlightConfidence float64  `toml:"spotlight_confidence" validate:"gte=0,lte=1"`
	SearchHits          int      `toml:"search_hits" validate:"gt=0"`
	HeuristicScore      float64  `toml:"heuristic_score" validate:"gte=0,lte=1"`
	PrimaryThreshold    float64  `toml:"primary_threshold" validate:"gte=0,lte=1"`
	FuzzyThreshold      float64  `toml:"fuzzy_threshold" validate:"gte=0,lte=1"`
	MinConfidence       float64  `toml:"min_confidence" validate:"gte=0,lte=1"`
	FuzzyLimit          int      `toml:"fuzzy_limit" validate:"gt=0"`
	MaxCandidates       int      `toml:"max_candidates" validate:"gt=0"`
}

type WebConfig struct {
	Provider   string `toml:"provider" validate:"oneof=searchapi duckduckgo"`
	Endpoint   string `toml:"endpoint" validate:"omitempty,url"`
	APIKey     string `toml:"api_key"`
	MaxResults int    `toml:"max_results" validate:"gt=0"`
	Paraphrase bool   `toml:"paraphrase"`
}

type RankingConfig struct {
	CrossEncoderEndpoint string  `toml:"cross_encoder_endpoint" validate:"omitempty,url"`
	ModelWeight          float64 `toml:"model_weight" validate:"gte=0,lte=1"`
	TrustWeight          float64 `toml:"trust_weight" validate:"gte=0,lte=1"`
	TopK                 int     `toml:"top_k" validate:"gt=0"`
}

type NLIConfig struct {
	Endpoint  string  `toml:"endpoint" validate:"omitempty,url"`
	BatchSize int     `toml:"batch_size" validate:"gt=0"`
	MinTotal  float64 `toml:"min_total" validate:"gte=0"`
	Dominance float64 `toml:"dominance" validate:"gte=0,lte=1"`
}

type JudgeConfig struct {
	MaxPaths int `toml:"max_paths" validate:"gt=0"`
}

type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	TTLSeconds    int    `toml:"ttl_seconds" validate:"gte=0"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"gte=0"`
}

type HTTPConfig struct {
	TimeoutMs     int     `toml:"timeout_ms" validate:"gt=0"`
	Retries       uint    `toml:"retries"`
	RatePerSecond float64 `toml:"rate_per_second" validate:"gte=0"`
	Burst         int     `toml:"burst" validate:"gte=0"`
	UserAgent     string  `toml:"user_agent"`
}

type ServerConfig struct {
	Port      string `toml:"port"`
	TimeSteps bool   `toml:"time_steps"`
}

type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=json console"`
}

type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

type TrustConfig struct {
	PriorsFile string `toml:"priors_file"`
}

type ConcurrencyConfig struct {
	BatchVerify int `toml:"batch_verify" validate:"gt=0"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Graph       GraphConfig       `toml:"graph"`
	KG          KGConfig          `toml:"kg"`
	Linking     LinkingConfig     `toml:"linking"`
	Web         WebConfig         `toml:"web"`
	Ranking     RankingConfig     `toml:"ranking"`
	NLI         NLIConfig         `toml:"nli"`
	Judge       JudgeConfig       `toml:"judge"`
	Cache       CacheConfig       `toml:"cache"`
	HTTP        HTTPConfig        `toml:"http"`
	Server      ServerConfig      `toml:"server"`
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Trust       TrustConfig       `toml:"trust"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Prompts     Prompts           `toml:"prompts"`
}

// Load reads a TOML file on top of Default, so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

const DefaultPath = "config/config.toml"

// Resolve loads the configuration for a process. An empty path means CONFIG_PATH,
// then DefaultPath; a missing DefaultPath falls back to Default. Environment
// overrides are applied before validation.
func Resolve(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if path = os.Getenv("CONFIG_PATH"); path != "" {
			explicit = true
		} else {
			path = DefaultPath
		}
	}

	var cfg *Config
	if _, err := os.Stat(path); err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if cfg, err = Load(path); err != nil {
		return nil, err
	}

	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.KG.Backend == "sparql" && c.KG.SPARQLEndpoint == "" {
		return fmt.Errorf("invalid configuration: kg.sparql_endpoint is required for the sparql backend")
	}
	if c.KG.Backend == "graph" && c.Graph.URI == "" {
		return fmt.Errorf("invalid configuration: graph.uri is required for the graph backend")
	}
	if c.Ranking.ModelWeight+c.Ranking.TrustWeight == 0 {
		return fmt.Errorf("invalid configuration: ranking weights must not both be zero")
	}
	return nil
}

func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
