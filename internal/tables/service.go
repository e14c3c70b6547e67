package tables

import (
	"context"
	"fmt"

	"seatly/internal/shared/clock"

	"github.com/google/uuid"
)

type Service interface {
	CreateTable(ctx context.Context, eventID string, req CreateTableRequest) (*EventTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (*EventTable, error)
	GetEventTables(ctx context.Context, eventID uuid.UUID) ([]EventTable, error)
	UpdateTable(ctx context.Context, id string, req UpdateTableRequest) (*EventTable, error)
	DeleteTable(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) Service {
	return &service{repo: repo, clock: clk}
}

func (s *service) CreateTable(ctx context.Context, eventID string, req CreateTableRequest) (*EventTable, error) {
	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}

	now := s.clock.Now()
	table := &EventTable{
		ID:          uuid.New(),
		EventID:     eventUUID,
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Label:       req.Label,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return table, nil
}

func (s *service) GetTable(ctx context.Context, id uuid.UUID) (*EventTable, error) {
	return s.repo.GetTableByID(ctx, id)
}

func (s *service) GetEventTables(ctx context.Context, eventID uuid.UUID) ([]EventTable, error) {
	return s.repo.GetTablesByEventID(ctx, eventID)
}

func (s *service) UpdateTable(ctx context.Context, id string, req UpdateTableRequest) (*EventTable, error) {
	tableID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid table ID: %w", err)
	}

	updates := map[string]interface{}{"updated_at": s.clock.Now()}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if len(updates) > 1 {
		if err := s.repo.UpdateTable(ctx, tableID, updates); err != nil {
			return nil, fmt.Errorf("failed to update table: %w", err)
		}
	}
	return s.repo.GetTableByID(ctx, tableID)
}

func (s *service) DeleteTable(ctx context.Context, id string) error {
	tableID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid table ID: %w", err)
	}
	if _, err := s.repo.GetTableByID(ctx, tableID); err != nil {
		return err
	}
	return s.repo.DeleteTable(ctx, tableID)
}
