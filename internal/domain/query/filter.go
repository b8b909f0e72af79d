package query

// Index field names for Congressional Record documents.
const (
	FieldNameTitle      = "title"
	FieldNameSpeakers   = "speakers"
	FieldNameContent    = "content"
	FieldNameEntities   = "named_entities"
	FieldNameDateIssued = "date_issued"
)

// Field identifies which document field a search filter applies to.
type Field int

const (
	// FieldTitle matches the document title as a phrase.
	FieldTitle Field = iota
	// FieldSpeaker matches speaker names, all tokens required.
	FieldSpeaker
	// FieldContent matches document content, all tokens required.
	FieldContent
	// FieldEntity matches extracted named entities, all tokens required.
	FieldEntity
)

// String returns the request parameter name for the field.
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldSpeaker:
		return "speaker"
	case FieldContent:
		return "content"
	case FieldEntity:
		return "entity"
	}
	return "unknown"
}

// Filter is one typed search filter value. Any string value is accepted
// verbatim; escaping is the index client's concern.
type Filter struct {
	field Field
	value string
}

// Title filters on the document title.
func Title(v string) Filter { return Filter{field: FieldTitle, value: v} }

// Speaker filters on speaker names.
func Speaker(v string) Filter { return Filter{field: FieldSpeaker, value: v} }

// Content filters on document content.
func Content(v string) Filter { return Filter{field: FieldContent, value: v} }

// Entity filters on extracted named entities.
func Entity(v string) Filter { return Filter{field: FieldEntity, value: v} }

// Field returns the filter's target field.
func (f Filter) Field() Field { return f.field }

// Value returns the raw filter value.
func (f Filter) Value() string { return f.value }

// Clause builds the atomic clause for this filter with field-appropriate
// match semantics. The switch is exhaustive over Field; there is no runtime
// lookup to fail.
func (f Filter) Clause() Clause {
	switch f.field {
	case FieldTitle:
		return NewPhrase(FieldNameTitle, f.value)
	case FieldSpeaker:
		return NewMatch(FieldNameSpeakers, f.value)
	case FieldContent:
		return NewMatch(FieldNameContent, f.value)
	case FieldEntity:
		return NewMatch(FieldNameEntities, f.value)
	}
	return NewMatch(FieldNameContent, f.value)
}
