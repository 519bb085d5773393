package reviewgroup

import (
	"time"
)

// ReviewGroup is the organizational unit that owns one or more sites.
type ReviewGroup struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Sites     []string  `json:"sites" yaml:"sites"`
	Status    string    `json:"status" yaml:"status,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Defaults returns the IFLA review groups and the sites they own.
func Defaults() []ReviewGroup {
	return []ReviewGroup{
		{ID: "ISBD", Name: "International Standard Bibliographic Description", Sites: []string{"isbd", "isbdm"}, Status: StatusActive},
		{ID: "LRM", Name: "Library Reference Model", Sites: []string{"lrm"}, Status: StatusActive},
		{ID: "FR", Name: "Functional Requirements", Sites: []string{"frbr"}, Status: StatusActive},
		{ID: "UNIMARC", Name: "UNIMARC", Sites: []string{"unimarc"}, Status: StatusActive},
		{ID: "MulDiCat", Name: "Multilingual Dictionary of Cataloguing Terms", Sites: []string{"muldicat"}, Status: StatusActive},
	}
}
