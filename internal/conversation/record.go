package conversation

import (
	"time"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

// SchemaVersion tags every serialized Record. Records carrying a different
// version are rejected at reconstruction as corrupted state.
const SchemaVersion = 1

// PageSize is the number of carparks rendered per results page.
const PageSize = 5

// Kind identifies which conversation state owns a Record.
type Kind string

const (
	// KindIdle is the greeter state outside an active search.
	KindIdle Kind = "idle"
	// KindNaturalSearch prompts for destination and time in one line.
	KindNaturalSearch Kind = "natural_search"
	// KindShowSearchData confirms the parsed destination and window.
	KindShowSearchData Kind = "show_search_data"
	// KindSearch is the destination-only retry path.
	KindSearch Kind = "search"
	// KindSelectTime is the time-window retry path.
	KindSelectTime Kind = "select_time"
	// KindShowCarparks renders ranked carpark pages.
	KindShowCarparks Kind = "show_carparks"
	// KindFeedback collects a feedback category and message.
	KindFeedback Kind = "feedback"
)

// Feedback is the user's feedback category and free-text message.
type Feedback struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// Record is the serializable snapshot of one conversation. It is the only
// thing that crosses the persistence boundary, and it is always replaced
// whole, never patched.
type Record struct {
	SchemaVersion   int             `json:"schema_version"`
	Kind            Kind            `json:"state_kind"`
	ChatID          int64           `json:"chat_id"`
	SearchQuery     string          `json:"search_query,omitempty"`
	LocationResults []geo.Location  `json:"location_results,omitempty"`
	Destination     *geo.Coordinate `json:"destination,omitempty"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	Feedback        Feedback        `json:"feedback"`
	CarparkOffset   int             `json:"carpark_results_index"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewRecord returns a fresh record for a conversation key, owned by the
// initial state.
func NewRecord(chatID int64) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		Kind:          KindIdle,
		ChatID:        chatID,
	}
}

// Window returns the parking window with defaults injected: a missing start
// is now+30m and a missing end is start+1h.
func (r Record) Window(now time.Time) (start, end time.Time) {
	if r.StartTime != nil {
		start = *r.StartTime
	} else {
		start = now.Add(30 * time.Minute)
	}

	if r.EndTime != nil {
		end = *r.EndTime
	} else {
		end = start.Add(time.Hour)
	}

	return start, end
}

// SetWindow stores a parking window on the record.
func (r *Record) SetWindow(start, end time.Time) {
	r.StartTime = &start
	r.EndTime = &end
}
