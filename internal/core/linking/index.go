package linking

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/claimcheck/internal/driver"
	"github.com/agenthands/claimcheck/internal/sparql"
)

// LabeledResource is one (uri, label) pair from a label search.
type LabeledResource struct {
	URI   string
	Label string
}

// Index is the part of the knowledge graph the resolver needs: a label search for
// fuzzy matching and an existence check for the heuristic linker.
type Index interface {
	SearchLabels(ctx context.Context, text string, limit int) ([]LabeledResource, error)
	Exists(ctx context.Context, uri string) (bool, error)
}

// SPARQLIndex searches English rdfs:label values on a SPARQL endpoint.
type SPARQLIndex struct {
	Client *sparql.Client
}

func NewSPARQLIndex(c *sparql.Client) *SPARQLIndex {
	return &SPARQLIndex{Client: c}
}

func (x *SPARQLIndex) SearchLabels(ctx context.Context, text string, limit int) ([]LabeledResource, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	query := fmt.Sprintf(`PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?uri ?label WHERE {
  ?uri rdfs:label ?label .
  FILTER (lang(?label) = "en")
  FILTER (CONTAINS(LCASE(?label), LCASE(%s)))
} LIMIT %d`, sparql.Literal(text), limit)

	rows, err := x.Client.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("label search failed: %w", err)
	}
	out := make([]LabeledResource, 0, len(rows))
	for _, row := range rows {
		if row["uri"].Type != "uri" {
			continue
		}
		out = append(out, LabeledResource{URI: row["uri"].Value, Label: row["label"].Value})
	}
	return out, nil
}

func (x *SPARQLIndex) Exists(ctx context.Context, uri string) (bool, error) {
	iri, err := sparql.IRI(uri)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("ASK { { %s ?p ?o } UNION { ?s ?p %s } }", iri, iri)
	ok, err := x.Client.Ask(ctx, query)
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return ok, nil
}

// GraphIndex answers the same questions from a KG mirror in a Bolt graph store.
type GraphIndex struct {
	Driver driver.GraphDriver
}

func NewGraphIndex(d driver.GraphDriver) *GraphIndex {
	return &GraphIndex{Driver: d}
}

func (x *GraphIndex) SearchLabels(ctx context.Context, text string, limit int) ([]LabeledResource, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	res, err := x.Driver.ExecuteQuery(ctx, driver.LabelSearchQuery, map[string]interface{}{
		"text":  text,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("label search failed: %w", err)
	}

	out := make([]LabeledResource, 0, len(res.Records))
	for _, record := range res.Records {
		m := record.AsMap()
		uri, label := getString(m, "uri"), getString(m, "label")
		if uri != "" {
			out = append(out, LabeledResource{URI: uri, Label: label})
		}
	}
	return out, nil
}

func (x *GraphIndex) Exists(ctx context.Context, uri string) (bool, error) {
	res, err := x.Driver.ExecuteQuery(ctx, driver.ResourceExistsQuery, map[string]interface{}{"uri": uri})
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	if len(res.Records) == 0 {
		return false, nil
	}
	found, ok := res.Records[0].AsMap()["found"].(int64)
	return ok && found > 0, nil
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
