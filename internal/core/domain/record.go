package domain

import "time"

// PostRecord is the durable row written once per url.
type PostRecord struct {
	ID        string
	URL       string
	Content   string
	Author    string
	GroupName string
	ScannedAt time.Time

	Details ExtractedDetails

	Category Category
	IsBroker bool

	// Confidence is nil when no classification call was made.
	Confidence *float64

	// Reason is the agent's justification or the short-circuit explanation.
	Reason string

	// FilterMatch is the keyword that short-circuited the post, if any.
	FilterMatch string

	// Relevant is cleared for every post that was filtered out.
	Relevant bool

	CreatedAt time.Time
}

// IngestState is the terminal state reached by one pipeline pass over a post.
type IngestState string

// Terminal states.
const (
	StateDeduped           IngestState = "deduped"
	StateBrokerRejected    IngestState = "broker_rejected"
	StateFilteredPersisted IngestState = "filtered"
	StatePersisted         IngestState = "persisted"
)

// IngestOutcome describes what happened to one post.
type IngestOutcome struct {
	URL    string
	State  IngestState
	Record *PostRecord
}

// PassSummary counts outcomes over one ingestion pass.
type PassSummary struct {
	RunID     string
	Total     int
	Deduped   int
	Broker    int
	Filtered  int
	Persisted int
	Errors    int
}

// Add tallies one outcome.
func (s *PassSummary) Add(o IngestOutcome) {
	s.Total++
	switch o.State {
	case StateDeduped:
		s.Deduped++
	case StateBrokerRejected:
		s.Broker++
	case StateFilteredPersisted:
		s.Filtered++
	case StatePersisted:
		s.Persisted++
	}
}

// Merge adds the counts of other. The run id is kept.
func (s *PassSummary) Merge(other PassSummary) {
	s.Total += other.Total
	s.Deduped += other.Deduped
	s.Broker += other.Broker
	s.Filtered += other.Filtered
	s.Persisted += other.Persisted
	s.Errors += other.Errors
}
