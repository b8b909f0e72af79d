package domain

// CanonicalSpeaker is a member of Congress keyed by their unique official
// full name. Looked up, never created, by this service.
type CanonicalSpeaker struct {
	ID           int64
	BioguideID   string
	OfficialFull string
}
