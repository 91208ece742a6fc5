package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// RoutingRule maps part-name keywords to a target rack type. Among
// active rules the lowest priority whose keywords match governs the
// part; inactive rules are invisible to classification.
type RoutingRule struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Priority int      `gorm:"not null" json:"priority"`
	Name     string   `json:"name"`
	Keywords string   `gorm:"not null" json:"keywords"`
	RackType RackType `gorm:"not null" json:"rack_type"`
	// Plain "not null" on purpose: a gorm default would make GORM omit
	// the zero value on insert, silently storing Active=false rows as
	// active. Defaulting new rules to active is the HTTP layer's job.
	Active    bool           `gorm:"not null" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for RoutingRule model
func (RoutingRule) TableName() string {
	return "routing_rules"
}

// KeywordList splits the stored comma-delimited keywords, trimmed and
// with empties dropped
func (r *RoutingRule) KeywordList() []string {
	var out []string
	for _, k := range strings.Split(r.Keywords, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Matches reports whether any keyword appears in the part name,
// case-insensitively
func (r *RoutingRule) Matches(partName string) bool {
	name := strings.ToLower(partName)
	for _, k := range r.KeywordList() {
		if strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
