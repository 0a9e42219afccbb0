package calendar

import "time"

// Provenance marks where a calendar event came from. Identifiers are only
// unique within one provenance; the reconciler never assumes cross-source
// identity.
type Provenance string

const (
	ProvenanceLocal    Provenance = "local-appointment"
	ProvenanceExternal Provenance = "external-feed"
)

// CategoryTime is the only event category the portal renders. All-day and
// milestone variants are excluded at import.
const CategoryTime = "time"

type Event struct {
	ID         string     `json:"id"`
	Provenance Provenance `json:"provenance"`
	Title      string     `json:"title"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Category   string     `json:"category"`
}
