package linking

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
)

// SpotlightLinker annotates the mention with DBpedia Spotlight and keeps the
// resources whose surface form is the mention itself.
type SpotlightLinker struct {
	Endpoint   string
	Confidence float64
	HTTP       *httpx.Client
}

func NewSpotlightLinker(endpoint string, confidence float64, hc *httpx.Client) *SpotlightLinker {
	return &SpotlightLinker{Endpoint: endpoint, Confidence: confidence, HTTP: hc}
}

func (l *SpotlightLinker) Name() string { return "spotlight" }

func (l *SpotlightLinker) Link(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	u, err := url.Parse(l.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("spotlight: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("text", mention)
	q.Set("confidence", strconv.FormatFloat(l.Confidence, 'f', -1, 64))
	u.RawQuery = q.Encode()

	body, err := l.HTTP.Get(ctx, u.String(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("spotlight annotate failed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("spotlight: malformed response")
	}

	var out []model.EntityCandidate
	seen := map[string]bool{}
	gjson.GetBytes(body, "Resources").ForEach(func(_, v gjson.Result) bool {
		uri := field(v, "@URI")
		surface := field(v, "@surfaceForm")
		if uri == "" || seen[uri] || !strings.EqualFold(strings.TrimSpace(surface), strings.TrimSpace(mention)) {
			return true
		}
		seen[uri] = true
		score, _ := strconv.ParseFloat(field(v, "@similarityScore"), 64)
		out = append(out, primary(uri, "", score))
		return true
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

// field reads a key literally; Spotlight prefixes keys with '@', which gjson
// paths treat as a modifier.
func field(obj gjson.Result, key string) string {
	var out string
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v.String()
			return false
		}
		return true
	})
	return out
}
