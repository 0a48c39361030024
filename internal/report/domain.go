package report

import "time"

const (
	StatusOpen      = "open"
	StatusTriaged   = "triaged"
	StatusInspected = "inspected"
	StatusResolved  = "resolved"
	StatusRejected  = "rejected"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Report struct {
	ID          string
	Title       string
	Description string
	ReporterID  string
	Lng         float64
	Lat         float64
	Categories  []string
	Status      string
	Priority    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time

	Photos []Photo
}

type Photo struct {
	ID         string
	ReportID   string
	Storage    string
	Key        string
	URL        string
	Mime       string
	Size       int64
	UploadedAt *time.Time
}

// ListFilter narrows and pages the report listing. Category matches reports
// tagged with the given category key; Sort is one of created_at, updated_at,
// priority.
type ListFilter struct {
	Category       string
	Status         string
	ReporterID     string
	Sort           string
	Descending     bool
	Limit          int
	Offset         int
	IncludeDeleted bool
}

type AuditEntry struct {
	ReportID string
	Actor    string
	Action   string
	At       time.Time
}
