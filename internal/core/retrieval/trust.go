package retrieval

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// TrustPriors assigns a source trust prior to a URL from its registrable domain.
type TrustPriors struct {
	Domains  map[string]float64 `yaml:"domains"`
	Suffixes map[string]float64 `yaml:"suffixes"`
	Default  float64            `yaml:"default"`
}

func DefaultTrustPriors() *TrustPriors {
	return &TrustPriors{
		Domains: map[string]float64{
			"wikidata.org": 1.0,
			"dbpedia.org":  1.0,
			"nytimes.com":  0.9,
			"bbc.co.uk":    0.9,
			"bbc.com":      0.9,
			"reddit.com":   0.1,
		},
		Suffixes: map[string]float64{
			"gov": 0.95,
			"edu": 0.95,
		},
		Default: 0.5,
	}
}

// LoadTrustPriors reads a YAML file over the defaults. Entries in the file win;
// anything it omits keeps its default.
func LoadTrustPriors(path string) (*TrustPriors, error) {
	priors := DefaultTrustPriors()
	if path == "" {
		return priors, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trust priors '%s': %w", path, err)
	}

	var override TrustPriors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse trust priors: %w", err)
	}
	for k, v := range override.Domains {
		priors.Domains[strings.ToLower(k)] = v
	}
	for k, v := range override.Suffixes {
		priors.Suffixes[strings.TrimPrefix(strings.ToLower(k), ".")] = v
	}
	if override.Default > 0 {
		priors.Default = override.Default
	}
	return priors, priors.validate()
}

func (t *TrustPriors) validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("trust prior for %s is %v, want [0,1]", name, v)
		}
		return nil
	}
	for k, v := range t.Domains {
		if err := check(k, v); err != nil {
			return err
		}
	}
	for k, v := range t.Suffixes {
		if err := check("."+k, v); err != nil {
			return err
		}
	}
	return check("default", t.Default)
}

// Score returns the prior for rawURL: exact registrable domain first, then the
// public suffix (so "whitehouse.gov" and "mit.edu" match), then the default.
func (t *TrustPriors) Score(rawURL string) float64 {
	host := hostOf(rawURL)
	if host == "" {
		return t.Default
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	if v, ok := t.Domains[domain]; ok {
		return v
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	for s := suffix; s != ""; {
		if v, ok := t.Suffixes[s]; ok {
			return v
		}
		i := strings.IndexByte(s, '.')
		if i < 0 {
			break
		}
		s = s[i+1:]
	}
	return t.Default
}

func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
