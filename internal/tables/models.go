package tables

import (
	"time"

	"github.com/google/uuid"
)

// EventTable defines one sellable table at an event. Seats are numbered
// 1..Capacity.
type EventTable struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_event_table_number" json:"event_id"`
	TableNumber int       `gorm:"not null;uniqueIndex:idx_event_table_number" json:"table_number"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Label       string    `gorm:"type:varchar(64)" json:"label"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for EventTable
func (EventTable) TableName() string {
	return "event_tables"
}

// HasSeat reports whether a seat number exists at this table.
func (t *EventTable) HasSeat(n int) bool {
	return n >= 1 && n <= t.Capacity
}

// CreateTableRequest represents a staff table-creation request
type CreateTableRequest struct {
	TableNumber int    `json:"table_number" binding:"required,min=1"`
	Capacity    int    `json:"capacity" binding:"required,min=1,max=50"`
	Label       string `json:"label" binding:"omitempty,max=64"`
}

// UpdateTableRequest represents a staff table-update request
type UpdateTableRequest struct {
	Capacity *int    `json:"capacity" binding:"omitempty,min=1,max=50"`
	Label    *string `json:"label" binding:"omitempty,max=64"`
}
