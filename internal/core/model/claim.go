package model

import "strings"

type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (t Triple) String() string {
	return t.Subject + " " + strings.ReplaceAll(t.Predicate, "_", " ") + " " + t.Object
}

type EntityType string

const (
	EntityPerson EntityType = "PERSON"
	EntityOrg    EntityType = "ORG"
	EntityGPE    EntityType = "GPE"
	EntityLoc    EntityType = "LOC"
	EntityDate   EntityType = "DATE"
	EntityEvent  EntityType = "EVENT"
	EntityWork   EntityType = "WORK"
	EntityMisc   EntityType = "MISC"
)

// ParseEntityType maps a free-form tag onto the known set, defaulting to MISC.
func ParseEntityType(s string) EntityType {
	switch t := EntityType(strings.ToUpper(strings.TrimSpace(s))); t {
	case EntityPerson, EntityOrg, EntityGPE, EntityLoc, EntityDate, EntityEvent, EntityWork:
		return t
	case "ORGANIZATION":
		return EntityOrg
	case "LOCATION", "PLACE":
		return EntityLoc
	default:
		return EntityMisc
	}
}

// Span holds byte offsets into the claim, End exclusive. Both are -1 when the
// mention could not be located in the text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type EntityMention struct {
	SurfaceText string     `json:"surface_text"`
	Span        Span       `json:"span"`
	Type        EntityType `json:"type"`
}

type CandidateSource string

const (
	SourcePrimaryLinker CandidateSource = "primary_linker"
	SourceFuzzyFallback CandidateSource = "fuzzy_fallback"
)

type EntityCandidate struct {
	URI        string          `json:"uri"`
	Label      string          `json:"label,omitempty"`
	Confidence float64         `json:"confidence"`
	Source     CandidateSource `json:"source"`
}
