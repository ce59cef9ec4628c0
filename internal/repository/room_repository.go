package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
)

const roomColumns = `id, code, building, capacity, room_type, created_at, updated_at`

// RoomRepository reads room reference data.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a room gateway.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns every room in insertion order.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms ORDER BY created_at ASC, id ASC`, roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID loads a room by identifier.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1`, roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}
