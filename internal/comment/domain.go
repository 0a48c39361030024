package comment

import "time"

type Comment struct {
	ID        string
	ReportID  string
	UserID    string
	Name      string
	Body      string
	CreatedAt time.Time
}

type CreateInput struct {
	Name string `json:"name" validate:"omitempty,max=100"`
	Body string `json:"body" validate:"required,max=2000"`
}
