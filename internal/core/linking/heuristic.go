package linking

import (
	"context"

	"github.com/agenthands/claimcheck/internal/core/model"
)

// HeuristicLinker guesses the resource URI from the surface text and keeps it only
// if the knowledge graph knows that resource.
type HeuristicLinker struct {
	Index Index
	Score float64
}

func NewHeuristicLinker(index Index, score float64) *HeuristicLinker {
	return &HeuristicLinker{Index: index, Score: score}
}

func (l *HeuristicLinker) Name() string { return "heuristic" }

func (l *HeuristicLinker) Link(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	uri := ResourceURI(mention)
	if uri == "" {
		return nil, nil
	}
	ok, err := l.Index.Exists(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []model.EntityCandidate{primary(uri, "", l.Score)}, nil
}
