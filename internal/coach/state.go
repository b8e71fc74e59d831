package coach

// State is the derived data of one session. The zero value is an empty
// session. A State belongs to exactly one session and is not safe for
// concurrent use.
type State struct {
	// ParsedText is the serialized parse result, empty until a parse
	// succeeds.
	ParsedText string

	Assignment *ExtractionResult
	Project    *ExtractionResult
}

// SlotStatus reports what an extraction slot holds.
type SlotStatus string

const (
	SlotEmpty      SlotStatus = "empty"
	SlotStructured SlotStatus = "structured"
	SlotRawText    SlotStatus = "raw_text"
)

// Slot returns the extraction result stored for kind, or nil.
func (s *State) Slot(kind SchemaKind) *ExtractionResult {
	switch kind {
	case Assignment:
		return s.Assignment
	case Project:
		return s.Project
	default:
		return nil
	}
}

// Status reports the state of the slot for kind.
func (s *State) Status(kind SchemaKind) SlotStatus {
	r := s.Slot(kind)
	switch {
	case r == nil:
		return SlotEmpty
	case r.Kind == Structured:
		return SlotStructured
	default:
		return SlotRawText
	}
}

func (s *State) setSlot(kind SchemaKind, r *ExtractionResult) {
	switch kind {
	case Assignment:
		s.Assignment = r
	case Project:
		s.Project = r
	}
}
