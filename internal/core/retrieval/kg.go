package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/driver"
	"github.com/agenthands/claimcheck/internal/sparql"
)

// KGRetriever returns the triples touching any of the given resources, with the
// resource as subject or object, capped at the retriever's limit.
type KGRetriever interface {
	Retrieve(ctx context.Context, uris []string) ([]model.EvidenceItem, error)
}

var allowedPrefixes = []string{
	"http://dbpedia.org/ontology/",
	"http://dbpedia.org/property/",
	"http://www.w3.org/2000/01/rdf-schema#",
	"http://purl.org/dc/terms/subject",
}

// Matched as prefixes, so dbp:name also drops dbp:nameday and friends.
var blacklistPrefixes = []string{
	"http://dbpedia.org/ontology/wikiPageWikiLink",
	"http://dbpedia.org/ontology/wikiPageExternalLink",
	"http://dbpedia.org/ontology/wikiPageRevisionID",
	"http://dbpedia.org/ontology/wikiPageLength",
	"http://dbpedia.org/ontology/wikiPageID",
	"http://dbpedia.org/ontology/wikiPageRedirects",
	"http://dbpedia.org/ontology/wikiPageDisambiguates",
	"http://dbpedia.org/ontology/thumbnail",
	"http://dbpedia.org/property/wikiPageUsesTemplate",
	"http://dbpedia.org/property/image",
	"http://dbpedia.org/property/imageCaption",
	"http://dbpedia.org/property/imageWidth",
	"http://dbpedia.org/property/note",
	"http://dbpedia.org/property/caption",
	"http://dbpedia.org/property/reason",
	"http://dbpedia.org/property/date",
	"http://dbpedia.org/property/name",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
	"http://www.w3.org/2000/01/rdf-schema#comment",
	"http://www.w3.org/2000/01/rdf-schema#label",
	"http://www.w3.org/2000/01/rdf-schema#seeAlso",
}

const abstractPredicate = "http://dbpedia.org/ontology/abstract"

// KeepPredicate applies the allow and deny lists to a predicate URI.
func KeepPredicate(p string) bool {
	allowed := false
	for _, a := range allowedPrefixes {
		if strings.HasPrefix(p, a) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	for _, b := range blacklistPrefixes {
		if strings.HasPrefix(p, b) {
			return false
		}
	}
	return true
}

func predicateFilter() string {
	var allow, deny []string
	for _, a := range allowedPrefixes {
		allow = append(allow, fmt.Sprintf("STRSTARTS(STR(?p), %q)", a))
	}
	for _, b := range blacklistPrefixes {
		deny = append(deny, fmt.Sprintf("STRSTARTS(STR(?p), %q)", b))
	}
	return fmt.Sprintf("FILTER((%s) && !(%s))", strings.Join(allow, " || "), strings.Join(deny, " || "))
}

// SPARQLRetriever reads triples from a DBpedia-style SPARQL endpoint.
type SPARQLRetriever struct {
	Client     *sparql.Client
	SourceName string
	MaxTriples int
	logger     *zap.Logger
}

func NewSPARQLRetriever(c *sparql.Client, sourceName string, maxTriples int, logger *zap.Logger) *SPARQLRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SPARQLRetriever{Client: c, SourceName: sourceName, MaxTriples: maxTriples, logger: logger}
}

// TriplesQuery is the query SPARQLRetriever sends for one resource.
func TriplesQuery(uri string, limit int) (string, error) {
	iri, err := sparql.IRI(uri)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT ?s ?p ?o WHERE {
  { %[1]s ?p ?o . BIND(%[1]s AS ?s) }
  UNION
  { ?s ?p %[1]s . BIND(%[1]s AS ?o) }
  %[2]s
  FILTER(!(?p = <%[3]s> && !langMatches(lang(?o), "en")))
} LIMIT %[4]d`, iri, predicateFilter(), abstractPredicate, limit), nil
}

func (r *SPARQLRetriever) Retrieve(ctx context.Context, uris []string) ([]model.EvidenceItem, error) {
	var out []model.EvidenceItem
	seen := map[string]bool{}
	for _, uri := range dedupe(uris) {
		remaining := r.MaxTriples - len(out)
		if remaining <= 0 {
			break
		}
		query, err := TriplesQuery(uri, remaining)
		if err != nil {
			return nil, &model.RetrievalError{Source: r.SourceName, Err: err}
		}
		rows, err := r.Client.Select(ctx, query)
		if err != nil {
			return nil, &model.RetrievalError{Source: r.SourceName, Err: err}
		}
		for _, row := range rows {
			s, p, o := row["s"].Value, row["p"].Value, row["o"].Value
			if s == "" || p == "" || o == "" {
				continue
			}
			out = appendTriple(out, seen, model.NewKGEvidence(s, p, o, r.SourceName), r.MaxTriples)
		}
		r.logger.Debug("kg triples fetched", zap.String("uri", uri), zap.Int("rows", len(rows)))
	}
	return out, nil
}

// GraphRetriever reads triples from the KG mirror in a Bolt graph store.
type GraphRetriever struct {
	Driver     driver.GraphDriver
	SourceName string
	MaxTriples int
	logger     *zap.Logger
}

func NewGraphRetriever(d driver.GraphDriver, sourceName string, maxTriples int, logger *zap.Logger) *GraphRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphRetriever{Driver: d, SourceName: sourceName, MaxTriples: maxTriples, logger: logger}
}

func (r *GraphRetriever) Retrieve(ctx context.Context, uris []string) ([]model.EvidenceItem, error) {
	var out []model.EvidenceItem
	seen := map[string]bool{}
	for _, uri := range dedupe(uris) {
		remaining := r.MaxTriples - len(out)
		if remaining <= 0 {
			break
		}
		res, err := r.Driver.ExecuteQuery(ctx, driver.FetchTriplesQuery, map[string]interface{}{
			"uri":   uri,
			"limit": remaining,
		})
		if err != nil {
			return nil, &model.RetrievalError{Source: r.SourceName, Err: err}
		}
		for _, record := range res.Records {
			m := record.AsMap()
			s, _ := m["subject"].(string)
			p, _ := m["predicate"].(string)
			o, _ := m["object"].(string)
			if s == "" || p == "" || o == "" || !KeepPredicate(p) {
				continue
			}
			out = appendTriple(out, seen, model.NewKGEvidence(s, p, o, r.SourceName), r.MaxTriples)
		}
		r.logger.Debug("kg triples fetched", zap.String("uri", uri), zap.Int("records", len(res.Records)))
	}
	return out, nil
}

func appendTriple(out []model.EvidenceItem, seen map[string]bool, item model.EvidenceItem, limit int) []model.EvidenceItem {
	key := item.Subject + "\x00" + item.Predicate + "\x00" + item.Object
	if seen[key] || len(out) >= limit {
		return out
	}
	seen[key] = true
	return append(out, item)
}

func dedupe(uris []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, u := range uris {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
