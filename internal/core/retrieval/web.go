package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
	"github.com/agenthands/claimcheck/internal/llm"
)

const webSource = "web"

// WebRetriever returns unranked snippets for a search query, each with a trust prior.
type WebRetriever interface {
	Retrieve(ctx context.Context, query string) ([]model.EvidenceItem, error)
}

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher queries a web search provider: searchapi.io (Google engine) or the
// DuckDuckGo instant answer API.
type WebSearcher struct {
	Provider   string
	Endpoint   string
	APIKey     string
	MaxResults int
	HTTP       *httpx.Client
	Trust      *TrustPriors
	logger     *zap.Logger
}

func NewWebSearcher(cfg config.WebConfig, hc *httpx.Client, trust *TrustPriors, logger *zap.Logger) *WebSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trust == nil {
		trust = DefaultTrustPriors()
	}
	return &WebSearcher{
		Provider:   cfg.Provider,
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		MaxResults: cfg.MaxResults,
		HTTP:       hc,
		Trust:      trust,
		logger:     logger,
	}
}

var ErrNoSearchKey = errors.New("web search is disabled: no search API key configured")

func (w *WebSearcher) Retrieve(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	var results []searchResult
	var err error

	switch w.Provider {
	case "duckduckgo":
		results, err = w.searchDuckDuckGo(ctx, query)
	default:
		results, err = w.searchAPI(ctx, query)
	}
	if err != nil {
		return nil, &model.RetrievalError{Source: webSource, Err: err}
	}

	out := make([]model.EvidenceItem, 0, len(results))
	for _, r := range results {
		if len(out) >= w.MaxResults {
			break
		}
		if strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		out = append(out, model.NewWebEvidence(r.Title, r.Snippet, r.URL, w.Trust.Score(r.URL)))
	}

	w.logger.Debug("web search done",
		zap.String("provider", w.Provider),
		zap.String("query", query),
		zap.Int("results", len(out)))
	return out, nil
}

func (w *WebSearcher) searchAPI(ctx context.Context, query string) ([]searchResult, error) {
	if w.APIKey == "" {
		return nil, ErrNoSearchKey
	}
	u, err := url.Parse(w.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("api_key", w.APIKey)
	q.Set("num", strconv.Itoa(w.MaxResults))
	u.RawQuery = q.Encode()

	body, err := w.HTTP.Get(ctx, u.String(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed search response")
	}

	var results []searchResult
	gjson.GetBytes(body, "organic_results").ForEach(func(_, v gjson.Result) bool {
		results = append(results, searchResult{
			Title:   v.Get("title").String(),
			URL:     v.Get("link").String(),
			Snippet: v.Get("snippet").String(),
		})
		return true
	})
	return results, nil
}

func (w *WebSearcher) searchDuckDuckGo(ctx context.Context, query string) ([]searchResult, error) {
	endpoint := "https://api.duckduckgo.com/"
	if w.Endpoint != "" {
		endpoint = w.Endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	u.RawQuery = q.Encode()

	body, err := w.HTTP.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed search response")
	}

	var results []searchResult
	if text := gjson.GetBytes(body, "AbstractText").String(); text != "" {
		results = append(results, searchResult{
			Title:   gjson.GetBytes(body, "Heading").String(),
			URL:     gjson.GetBytes(body, "AbstractURL").String(),
			Snippet: text,
		})
	}

	var collect func(topics gjson.Result)
	collect = func(topics gjson.Result) {
		topics.ForEach(func(_, t gjson.Result) bool {
			if nested := t.Get("Topics"); nested.Exists() {
				collect(nested)
				return true
			}
			text, link := t.Get("Text").String(), t.Get("FirstURL").String()
			if text != "" && link != "" {
				title := text
				if i := strings.Index(text, " - "); i > 0 {
					title = text[:i]
				}
				results = append(results, searchResult{Title: title, URL: link, Snippet: text})
			}
			return true
		})
	}
	collect(gjson.GetBytes(body, "RelatedTopics"))
	return results, nil
}

// QueryBuilder turns a triple into a web query. Without a paraphrasing model it
// quotes each part: "S" "P" "O".
type QueryBuilder struct {
	LLM    llm.LLMClient
	Prompt string
	logger *zap.Logger
}

func NewQueryBuilder(client llm.LLMClient, prompt string, logger *zap.Logger) *QueryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryBuilder{LLM: client, Prompt: prompt, logger: logger}
}

func (b *QueryBuilder) Build(ctx context.Context, t model.Triple) string {
	quoted := fmt.Sprintf("%q %q %q", t.Subject, strings.ReplaceAll(t.Predicate, "_", " "), t.Object)
	if b == nil || b.LLM == nil {
		return quoted
	}

	resp, err := b.LLM.Generate(ctx, fmt.Sprintf(b.Prompt, t.Subject, strings.ReplaceAll(t.Predicate, "_", " "), t.Object))
	if err != nil {
		b.logger.Warn("query paraphrase failed, using quoted triple", zap.Error(err))
		return quoted
	}
	q := strings.Trim(strings.TrimSpace(firstLine(resp)), "\"'`")
	if q == "" {
		return quoted
	}
	return q
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
