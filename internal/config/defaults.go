package config

const DefaultExtractionPrompt = `You are a precise open information extraction system.
Extract every factual triple asserted by the claim below, plus the named entities it mentions.
Put the main assertion of the sentence first.
Use short predicates; use "is_a" for class membership.
Entity types: PERSON, ORG, GPE, LOC, DATE, EVENT, WORK, MISC.

Respond ONLY with JSON:
{"triples": [{"subject": "...", "predicate": "...", "object": "..."}],
 "entities": [{"text": "...", "type": "..."}]}

Claim: %s`

const DefaultJudgePrompt = `You are a world-class fact-verification assistant.
Given a claim and a numbered list of evidence paths, choose exactly one label:
  Supported        - at least one path affirms the claim's assertion.
  Refuted          - at least one path explicitly contradicts it.
  Not Enough Info  - otherwise.

Use only the provided paths; do not invent facts.
Output only a single JSON object:
{"label": "<Supported|Refuted|Not Enough Info>", "reason": "<one concise sentence citing path number(s)>"}

Claim: %s

Evidence paths:
%s`

const DefaultParaphrasePrompt = `Rewrite the following fact as one short web search query.
Keep proper names exact. Output only the query, no quotes or commentary.

Subject: %s
Predicate: %s
Object: %s`

const DefaultRelevancePrompt = `You are a search relevance scoring system.
Query: %s

Documents:
%s

Score how relevant each document is to the query, from 0.0 (unrelated) to 1.0 (directly answers it).
Respond ONLY with JSON: {"scores": [<score for [0]>, <score for [1]>, ...]}`

// Default returns a configuration that works against the public DBpedia, Wikidata and
// searchapi.io endpoints with a local Ollama model.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "gpt-oss:latest",
			BaseURL:  "http://localhost:11434",
		},
		Graph: GraphConfig{
			URI: "bolt://localhost:7687",
		},
		KG: KGConfig{
			Backend:        "sparql",
			SPARQLEndpoint: "https://dbpedia.org/sparql",
			SourceName:     "dbpedia",
			MaxTriples:     100,
		},
		Linking: LinkingConfig{
			Linkers:             []string{"wikidata", "lookup", "spotlight", "heuristic"},
			WikidataEndpoint:    "https://www.wikidata.org/w/api.php",
			LookupEndpoint:      "https://lookup.dbpedia.org/api/search",
			SpotlightEndpoint:   "https://api.dbpedia-spotlight.org/en/annotate",
			SpotlightConfidence: 0.35,
			SearchHits:          5,
			HeuristicScore:      0.2,
			PrimaryThreshold:    0.5,
			FuzzyThreshold:      0.8,
			MinConfidence:       0.2,
			FuzzyLimit:          250,
			MaxCandidates:       5,
		},
		Web: WebConfig{
			Provider:   "searchapi",
			Endpoint:   "https://www.searchapi.io/api/v1/search",
			MaxResults: 10,
		},
		Ranking: RankingConfig{
			ModelWeight: 0.8,
			TrustWeight: 0.2,
			TopK:        10,
		},
		NLI: NLIConfig{
			BatchSize: 8,
			MinTotal:  0.6,
			Dominance: 0.7,
		},
		Judge: JudgeConfig{
			MaxPaths: 20,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 24 * 60 * 60,
		},
		HTTP: HTTPConfig{
			TimeoutMs:     10000,
			Retries:       2,
			RatePerSecond: 5,
			Burst:         5,
			UserAgent:     "claimcheck/1.0",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "claimcheck",
		},
		Concurrency: ConcurrencyConfig{
			BatchVerify: 4,
		},
		Prompts: Prompts{
			Extraction: DefaultExtractionPrompt,
			Judge:      DefaultJudgePrompt,
			Paraphrase: DefaultParaphrasePrompt,
			Relevance:  DefaultRelevancePrompt,
		},
	}
}
