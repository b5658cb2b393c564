package domain

import "time"

// Template is a named, versioned prompt template.
type Template struct {
	Name     string
	Body     string
	EditedBy string
	EditedAt time.Time
}
