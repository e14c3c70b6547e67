package tables

import (
	"context"
	"errors"

	"seatly/internal/availability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTable(ctx context.Context, table *EventTable) error
	GetTableByID(ctx context.Context, id uuid.UUID) (*EventTable, error)
	GetTablesByEventID(ctx context.Context, eventID uuid.UUID) ([]EventTable, error)
	UpdateTable(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteTable(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTable(ctx context.Context, table *EventTable) error {
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *repository) GetTableByID(ctx context.Context, id uuid.UUID) (*EventTable, error) {
	var table EventTable
	err := r.db.WithContext(ctx).First(&table, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availability.ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (r *repository) GetTablesByEventID(ctx context.Context, eventID uuid.UUID) ([]EventTable, error) {
	var out []EventTable
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("table_number ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) UpdateTable(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&EventTable{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&EventTable{}, "id = ?", id).Error
}
