package models

import (
	"strings"
	"time"
)

// Setting is a persisted repository setting editable through the API.
// Values are stored as strings; Type tells the UI how to render them.
type Setting struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Key         string `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Value       string `gorm:"size:512" json:"value"`
	Type        string `gorm:"size:16;not null;default:'string'" json:"type"`
	Name        string `gorm:"size:128" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	DependsOn   string `gorm:"size:64" json:"depends_on,omitempty"`
	Position    int    `gorm:"not null;default:0" json:"position"`
}

// Bool interprets the stored value as a boolean.
func (s *Setting) Bool() bool {
	switch strings.ToLower(s.Value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
