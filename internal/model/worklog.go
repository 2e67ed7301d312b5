package model

// WorkEntry is a single unit of work as written in a work-log document.
type WorkEntry struct {
	Project       string   `json:"project" yaml:"project"`
	Subject       string   `json:"subject" yaml:"subject"`
	DurationHours float64  `json:"duration_hours" yaml:"duration_hours"`
	Activity      string   `json:"activity" yaml:"activity"`
	IsScrum       bool     `json:"is_scrum" yaml:"is_scrum"`
	BreakHours    *float64 `json:"break_hours" yaml:"break_hours"`
	WorkPackageID *int     `json:"work_package_id" yaml:"work_package_id"`
}

// Entry is a WorkEntry enriched with the identifiers its project and activity
// names resolve to.
type Entry struct {
	WorkEntry
	ProjectID  int `json:"projectId"`
	ActivityID int `json:"activityId"`
}

// DailyLog holds the validated entries of one calendar date.
type DailyLog struct {
	// Date is the raw "mon-dd-yyyy" token from the document.
	Date string `json:"date"`
	// ISODate is Date converted to yyyy-mm-dd.
	ISODate string  `json:"isoDate"`
	Entries []Entry `json:"entries"`
}

// ValidationResult is the outcome of validating a work-log document.
type ValidationResult struct {
	Logs    []DailyLog `json:"logs"`
	Errors  []string   `json:"errors"`
	IsValid bool       `json:"isValid"`
	// CrossDate never affects IsValid.
	CrossDate []CrossDateDuplicate `json:"crossDateDuplicates"`
}

// SameDateDuplicate points at two entries of one date sharing project and
// subject. Indices are 0-based.
type SameDateDuplicate struct {
	Index1  int    `json:"index1"`
	Index2  int    `json:"index2"`
	Project string `json:"project"`
	Subject string `json:"subject"`
}

// DateHours is one occurrence of a subject on a date.
type DateHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// CrossDateDuplicate aggregates a project/subject pair logged on more than one
// date. It is informational only.
type CrossDateDuplicate struct {
	Project    string      `json:"project"`
	Subject    string      `json:"subject"`
	Dates      []DateHours `json:"dates"`
	TotalHours float64     `json:"totalHours"`
}

// ScheduledEntry is an Entry placed on the clock. Times are hours of day.
type ScheduledEntry struct {
	Entry
	StartTime          float64 `json:"startTime"`
	EndTime            float64 `json:"endTime"`
	StartTimeFormatted string  `json:"startTimeFormatted"`
	EndTimeFormatted   string  `json:"endTimeFormatted"`
}

// Timeline is the schedule of one date built from a chosen start hour.
type Timeline struct {
	Date       string           `json:"date"`
	ISODate    string           `json:"isoDate"`
	Entries    []ScheduledEntry `json:"entries"`
	TotalHours float64          `json:"totalHours"`
}

// Reconciliation actions.
const (
	ActionCreated = "created"
	ActionSkipped = "skipped"
	// ActionPlanned marks an entry a dry run would have booked.
	ActionPlanned = "planned"
)

// Success records an entry that reached the remote service.
type Success struct {
	Entry              ScheduledEntry `json:"entry"`
	WorkPackageID      int            `json:"workPackageId"`
	TimeEntryID        int            `json:"timeEntryId"`
	Action             string         `json:"action"`
	WorkPackageCreated bool           `json:"workPackageCreated"`
	Message            string         `json:"message,omitempty"`
}

// Failure records an entry whose submission failed.
type Failure struct {
	Entry ScheduledEntry `json:"entry"`
	Error string         `json:"error"`
}

// Outcome is the per-entry report of one reconciliation run.
type Outcome struct {
	Success []Success `json:"success"`
	Failed  []Failure `json:"failed"`
}

// Count returns how many successes carry the given action.
func (o Outcome) Count(action string) int {
	n := 0
	for _, s := range o.Success {
		if s.Action == action {
			n++
		}
	}
	return n
}

// Report is what gets archived for a date after a submission.
type Report struct {
	RunID     string   `json:"run_id"`
	StartHour float64  `json:"start_hour"`
	DryRun    bool     `json:"dry_run"`
	Timeline  Timeline `json:"timeline"`
	Outcome   Outcome  `json:"outcome"`
}
