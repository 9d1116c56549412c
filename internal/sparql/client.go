package sparql

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/httpx"
)

const resultsJSON = "application/sparql-results+json"

// Term is one bound value in a SPARQL JSON result row.
type Term struct {
	Type  string // uri, literal, typed-literal, bnode
	Value string
	Lang  string
}

type Binding map[string]Term

// Client runs read-only queries against a SPARQL 1.1 endpoint.
type Client struct {
	Endpoint string
	HTTP     *httpx.Client
}

func NewClient(endpoint string, hc *httpx.Client) *Client {
	return &Client{Endpoint: endpoint, HTTP: hc}
}

func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	body, err := c.get(ctx, query)
	if err != nil {
		return nil, err
	}
	return ParseSelect(body)
}

func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	body, err := c.get(ctx, query)
	if err != nil {
		return false, err
	}
	res := gjson.GetBytes(body, "boolean")
	if !res.Exists() {
		return false, fmt.Errorf("sparql: ASK response has no boolean")
	}
	return res.Bool(), nil
}

func (c *Client) get(ctx context.Context, query string) ([]byte, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("sparql: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("format", resultsJSON)
	u.RawQuery = q.Encode()

	body, err := c.HTTP.Get(ctx, u.String(), map[string]string{"Accept": resultsJSON})
	if err != nil {
		return nil, fmt.Errorf("sparql query failed: %w", err)
	}
	return body, nil
}

// ParseSelect decodes a SPARQL JSON results document.
func ParseSelect(body []byte) ([]Binding, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("sparql: malformed JSON results")
	}
	rows := gjson.GetBytes(body, "results.bindings")
	if !rows.Exists() {
		return nil, fmt.Errorf("sparql: response has no results.bindings")
	}

	var out []Binding
	rows.ForEach(func(_, row gjson.Result) bool {
		b := Binding{}
		row.ForEach(func(k, v gjson.Result) bool {
			b[k.String()] = Term{
				Type:  v.Get("type").String(),
				Value: v.Get("value").String(),
				Lang:  v.Get("xml:lang").String(),
			}
			return true
		})
		out = append(out, b)
		return true
	})
	return out, nil
}

// IRI wraps a URI for inclusion in a query, rejecting characters that would break out of <...>.
func IRI(uri string) (string, error) {
	if uri == "" || strings.ContainsAny(uri, "<>\"{}|\\^` \n\t") {
		return "", fmt.Errorf("sparql: unsafe IRI %q", uri)
	}
	return "<" + uri + ">", nil
}

// Literal escapes s as a double-quoted SPARQL string literal.
func Literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}
