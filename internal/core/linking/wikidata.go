package linking

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
	"github.com/agenthands/claimcheck/internal/sparql"
)

const wikidataEntity = "http://www.wikidata.org/entity/"

// WikidataLinker searches Wikidata for the mention and maps each hit to its
// DBpedia resource through owl:sameAs.
type WikidataLinker struct {
	Endpoint string
	Hits     int
	HTTP     *httpx.Client
	SPARQL   *sparql.Client
}

func NewWikidataLinker(endpoint string, hits int, hc *httpx.Client, sc *sparql.Client) *WikidataLinker {
	return &WikidataLinker{Endpoint: endpoint, Hits: hits, HTTP: hc, SPARQL: sc}
}

func (l *WikidataLinker) Name() string { return "wikidata" }

type wikidataHit struct {
	id    string
	label string
}

func (l *WikidataLinker) Link(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	hits, err := l.search(ctx, mention)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sameAs, err := l.dbpediaFor(ctx, hits)
	if err != nil {
		return nil, err
	}

	var out []model.EntityCandidate
	seen := map[string]bool{}
	for i, h := range hits {
		uri, ok := sameAs[h.id]
		if !ok || seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, primary(uri, h.label, rankScore(i, l.Hits)))
	}
	return out, nil
}

func (l *WikidataLinker) search(ctx context.Context, mention string) ([]wikidataHit, error) {
	u, err := url.Parse(l.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("wikidata: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", "wbsearchentities")
	q.Set("search", mention)
	q.Set("language", "en")
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(l.Hits))
	u.RawQuery = q.Encode()

	body, err := l.HTTP.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wikidata search failed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("wikidata: malformed search response")
	}

	var hits []wikidataHit
	gjson.GetBytes(body, "search").ForEach(func(_, v gjson.Result) bool {
		id := v.Get("id").String()
		if strings.HasPrefix(id, "Q") {
			hits = append(hits, wikidataHit{id: id, label: v.Get("label").String()})
		}
		return len(hits) < l.Hits
	})
	return hits, nil
}

func (l *WikidataLinker) dbpediaFor(ctx context.Context, hits []wikidataHit) (map[string]string, error) {
	var values strings.Builder
	for _, h := range hits {
		values.WriteString("<" + wikidataEntity + h.id + "> ")
	}
	query := fmt.Sprintf(`PREFIX owl: <http://www.w3.org/2002/07/owl#>
SELECT ?item ?resource WHERE {
  VALUES ?item { %s}
  ?resource owl:sameAs ?item .
  FILTER(STRSTARTS(STR(?resource), "%s"))
}`, values.String(), DBpediaResource)

	rows, err := l.SPARQL.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("wikidata sameAs lookup failed: %w", err)
	}

	out := map[string]string{}
	for _, row := range rows {
		id := strings.TrimPrefix(row["item"].Value, wikidataEntity)
		if _, ok := out[id]; !ok && row["resource"].Value != "" {
			out[id] = row["resource"].Value
		}
	}
	return out, nil
}
