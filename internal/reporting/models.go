package reporting

import "time"

// Range is a half-open [From, To) reporting window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// QueueReportRequest scopes a report to one organization, optionally to
// a single queue.
type QueueReportRequest struct {
	OrganizationID string `json:"organization_id"`
	QueueID        string `json:"queue_id,omitempty"`
	Range          Range  `json:"range"`
}

// QueueReport aggregates what happened to the entries that joined
// during the window.
type QueueReport struct {
	OrganizationID string `json:"organization_id"`
	QueueID        string `json:"queue_id,omitempty"`

	TotalJoined  int `json:"total_joined"`
	Completed    int `json:"completed"`
	Cancelled    int `json:"cancelled"`
	NoShows      int `json:"no_shows"`
	StillWaiting int `json:"still_waiting"`
	InService    int `json:"in_service"`

	// AverageWaitSeconds is joined -> called, over entries that were
	// called. AverageServiceSeconds is called -> completed, over
	// completed entries.
	AverageWaitSeconds    int `json:"average_wait_seconds"`
	AverageServiceSeconds int `json:"average_service_seconds"`
}
