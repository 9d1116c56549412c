package driver

import (
	"context"
	"fmt"

	"github.com/agenthands/claimcheck/internal/core/model"
)

// SaveTriple writes one triple into the KG mirror, labelling both ends with their short names.
func SaveTriple(ctx context.Context, d GraphDriver, subject, predicate, object string) error {
	params := map[string]interface{}{
		"subject":       subject,
		"predicate":     predicate,
		"object":        object,
		"subject_label": model.ShortName(subject),
		"object_label":  model.ShortName(object),
	}
	if _, err := d.ExecuteQuery(ctx, SaveTripleQuery, params); err != nil {
		return fmt.Errorf("failed to save triple %s %s %s: %w", subject, predicate, object, err)
	}
	return nil
}
