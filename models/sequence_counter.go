package models

import (
	"fmt"
	"time"
)

// SequenceCounter stores the last value for named monotonic counters.
type SequenceCounter struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	LastValue string    `gorm:"size:64;not null" json:"last_value"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }

// QuoteCounterName is the counter that serializes quote numbering for a year
func QuoteCounterName(year int) string {
	return fmt.Sprintf("quote:%d", year)
}
