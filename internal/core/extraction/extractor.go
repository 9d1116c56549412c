package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/common"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/llm"
)

type Extractor struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewExtractor(llmClient llm.LLMClient, prompt string) *Extractor {
	return &Extractor{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

type extractedTriple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

type extractedEntity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type extractionReply struct {
	Triples  []extractedTriple `json:"triples"`
	Entities []extractedEntity `json:"entities"`
}

// Extract returns the head triple of the claim and the entity mentions it contains.
// The head is the first complete triple the model reports.
func (e *Extractor) Extract(ctx context.Context, claim string) (model.Triple, []model.EntityMention, error) {
	triples, mentions, err := e.ExtractAll(ctx, claim)
	if err != nil {
		return model.Triple{}, nil, err
	}
	head := triples[0]
	return head, orderMentions(head, mentions), nil
}

// ExtractAll returns every complete triple in the sentence plus its entity mentions.
func (e *Extractor) ExtractAll(ctx context.Context, sentence string) ([]model.Triple, []model.EntityMention, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, nil, &model.ExtractionError{Reason: "empty claim"}
	}

	prompt := fmt.Sprintf(e.Prompt, sentence)
	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("triple extraction model call failed: %w", err)
	}

	reply, err := common.ParseJSON[extractionReply](response)
	if err != nil {
		return nil, nil, &model.ExtractionError{Reason: "unparseable model reply", Err: err}
	}

	var triples []model.Triple
	for _, t := range reply.Triples {
		tr := model.Triple{
			Subject:   strings.TrimSpace(t.Subject),
			Predicate: NormalizePredicate(t.Predicate),
			Object:    strings.TrimSpace(t.Object),
		}
		if tr.Subject == "" || tr.Predicate == "" || tr.Object == "" {
			continue
		}
		triples = append(triples, tr)
	}
	if len(triples) == 0 {
		return nil, nil, &model.ExtractionError{Reason: "no subject-predicate-object structure found"}
	}

	var mentions []model.EntityMention
	seen := map[string]bool{}
	add := func(text string, typ model.EntityType) {
		key := strings.ToLower(strings.TrimSpace(text))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		mentions = append(mentions, model.EntityMention{
			SurfaceText: strings.TrimSpace(text),
			Span:        locate(sentence, text),
			Type:        typ,
		})
	}
	types := map[string]model.EntityType{}
	for _, ent := range reply.Entities {
		types[strings.ToLower(strings.TrimSpace(ent.Text))] = model.ParseEntityType(ent.Type)
	}
	typeOf := func(text string) model.EntityType {
		if t, ok := types[strings.ToLower(strings.TrimSpace(text))]; ok {
			return t
		}
		return model.EntityMisc
	}

	for _, ent := range reply.Entities {
		add(ent.Text, typeOf(ent.Text))
	}
	for _, t := range triples {
		add(t.Subject, typeOf(t.Subject))
		add(t.Object, typeOf(t.Object))
	}

	return triples, mentions, nil
}

// orderMentions puts the head subject first and the head object second.
func orderMentions(head model.Triple, mentions []model.EntityMention) []model.EntityMention {
	out := make([]model.EntityMention, 0, len(mentions))
	pick := func(text string) {
		for _, m := range mentions {
			if strings.EqualFold(m.SurfaceText, text) {
				out = append(out, m)
				return
			}
		}
	}
	pick(head.Subject)
	pick(head.Object)
	for _, m := range mentions {
		if !strings.EqualFold(m.SurfaceText, head.Subject) && !strings.EqualFold(m.SurfaceText, head.Object) {
			out = append(out, m)
		}
	}
	return out
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizePredicate lowercases a verb phrase and joins its words with underscores,
// so "is a" and "Is-A" both become "is_a".
func NormalizePredicate(p string) string {
	return strings.Trim(nonWord.ReplaceAllString(strings.ToLower(p), "_"), "_")
}

func locate(text, surface string) model.Span {
	surface = strings.TrimSpace(surface)
	i := strings.Index(strings.ToLower(text), strings.ToLower(surface))
	if surface == "" || i < 0 {
		return model.Span{Start: -1, End: -1}
	}
	return model.Span{Start: i, End: i + len(surface)}
}
