package linking

import (
	"context"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/model"
)

const DBpediaResource = "http://dbpedia.org/resource/"

// Linker maps a mention's surface text to scored KG resource URIs.
// Candidates are returned best first with confidence in [0,1].
type Linker interface {
	Name() string
	Link(ctx context.Context, mention string) ([]model.EntityCandidate, error)
}

// ResourceURI builds the DBpedia resource URI a surface form would have:
// first letter upper-cased, spaces as underscores.
func ResourceURI(surface string) string {
	name := strings.Join(strings.Fields(surface), "_")
	if name == "" {
		return ""
	}
	r := []rune(name)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return DBpediaResource + string(r)
}

// rankScore scores the i-th of n hits so the first hit gets 1.
func rankScore(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - float64(i)/float64(n)
}

func primary(uri, label string, score float64) model.EntityCandidate {
	if label == "" {
		label = model.ShortName(uri)
	}
	return model.EntityCandidate{
		URI:        uri,
		Label:      label,
		Confidence: score,
		Source:     model.SourcePrimaryLinker,
	}
}
