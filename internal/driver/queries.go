package driver

// KG mirror layout: every IRI or literal is a :Resource node keyed by uri (the
// literal text for literals); each triple is a :TRIPLE relationship carrying the
// predicate IRI.
const (
	FetchTriplesQuery = `
		MATCH (s:Resource)-[r:TRIPLE]->(o:Resource)
		WHERE s.uri = $uri OR o.uri = $uri
		RETURN s.uri AS subject, r.predicate AS predicate, o.uri AS object
		LIMIT $limit
	`

	LabelSearchQuery = `
		MATCH (n:Resource)
		WHERE n.label IS NOT NULL AND toLower(n.label) CONTAINS toLower($text)
		RETURN n.uri AS uri, n.label AS label
		LIMIT $limit
	`

	ResourceExistsQuery = `
		MATCH (n:Resource {uri: $uri})
		RETURN count(n) AS found
	`

	SaveTripleQuery = `
		MERGE (s:Resource {uri: $subject})
		SET s.label = coalesce($subject_label, s.label)
		MERGE (o:Resource {uri: $object})
		SET o.label = coalesce($object_label, o.label)
		MERGE (s)-[r:TRIPLE {predicate: $predicate}]->(o)
		RETURN s.uri AS uri
	`
)
