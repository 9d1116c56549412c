package linking

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
)

// LookupLinker queries the DBpedia Lookup API. Lookup scores are unbounded, so they
// are divided by the best score in the response. Without scores the reference count
// is used the same way, and failing that the rank.
type LookupLinker struct {
	Endpoint string
	Hits     int
	HTTP     *httpx.Client
}

func NewLookupLinker(endpoint string, hits int, hc *httpx.Client) *LookupLinker {
	return &LookupLinker{Endpoint: endpoint, Hits: hits, HTTP: hc}
}

func (l *LookupLinker) Name() string { return "lookup" }

type lookupDoc struct {
	uri      string
	label    string
	score    float64
	refCount float64
}

var markup = regexp.MustCompile(`<[^>]+>`)

func (l *LookupLinker) Link(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	u, err := url.Parse(l.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("lookup: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("query", mention)
	q.Set("maxResults", strconv.Itoa(l.Hits))
	q.Set("format", "JSON")
	u.RawQuery = q.Encode()

	body, err := l.HTTP.Get(ctx, u.String(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("dbpedia lookup failed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("lookup: malformed response")
	}

	var docs []lookupDoc
	var maxScore, maxRef float64
	gjson.GetBytes(body, "docs").ForEach(func(_, v gjson.Result) bool {
		d := lookupDoc{
			uri:      first(v.Get("resource")),
			label:    markup.ReplaceAllString(first(v.Get("label")), ""),
			score:    firstFloat(v.Get("score")),
			refCount: firstFloat(v.Get("refCount")),
		}
		if d.uri == "" {
			return true
		}
		maxScore = max(maxScore, d.score)
		maxRef = max(maxRef, d.refCount)
		docs = append(docs, d)
		return len(docs) < l.Hits
	})

	out := make([]model.EntityCandidate, 0, len(docs))
	for i, d := range docs {
		var score float64
		switch {
		case maxScore > 0:
			score = d.score / maxScore
		case maxRef > 0:
			score = d.refCount / maxRef
		default:
			score = rankScore(i, l.Hits)
		}
		out = append(out, primary(d.uri, d.label, score))
	}
	return out, nil
}

// Lookup returns most fields as single-element arrays.
func first(v gjson.Result) string {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return ""
		}
		return arr[0].String()
	}
	return v.String()
}

func firstFloat(v gjson.Result) float64 {
	f, err := strconv.ParseFloat(first(v), 64)
	if err != nil {
		return 0
	}
	return f
}
