package config

import (
	"os"
	"strconv"
)

// ApplyEnv overrides file values with environment variables when they are set.
func ApplyEnv(cfg *Config) {
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envEmbeddingModel := os.Getenv("LLM_EMBEDDING_MODEL"); envEmbeddingModel != "" {
		cfg.LLM.EmbeddingModel = envEmbeddingModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}

	if v := os.Getenv("GRAPH_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("GRAPH_USER"); v != "" {
		cfg.Graph.User = v
	}
	if v := os.Getenv("GRAPH_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("KG_BACKEND"); v != "" {
		cfg.KG.Backend = v
	}
	if v := os.Getenv("SPARQL_ENDPOINT"); v != "" {
		cfg.KG.SPARQLEndpoint = v
	}

	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Web.APIKey = v
	}
	if v := os.Getenv("CROSS_ENCODER_URL"); v != "" {
		cfg.Ranking.CrossEncoderEndpoint = v
	}
	if v := os.Getenv("NLI_URL"); v != "" {
		cfg.NLI.Endpoint = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("TIME_STEPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.TimeSteps = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
