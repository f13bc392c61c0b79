package gym

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classbook/internal/db"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateGym(ctx context.Context, id, name string) (*Gym, error)
	GetGymByID(ctx context.Context, id string) (*Gym, error)
	CreateClass(ctx context.Context, class ClassSession) (*ClassSession, error)
	GetClassByID(ctx context.Context, id string) (*ClassSession, error)
	ListClassesByGym(ctx context.Context, gymID string, from time.Time) ([]ClassSession, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateGym(ctx context.Context, id, name string) (*Gym, error) {
	query := `
		INSERT INTO gyms (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created_at
	`

	var g Gym
	if err := r.db.GetContext(ctx, &g, query, id, name); err != nil {
		if db.IsUniqueViolation(err, "gyms_pkey") {
			return nil, ErrGymExists
		}
		return nil, fmt.Errorf("insert gym: %w", err)
	}

	return &g, nil
}

func (r *repository) GetGymByID(ctx context.Context, id string) (*Gym, error) {
	query := `
		SELECT id, name, created_at
		FROM gyms
		WHERE id = $1
	`

	var g Gym
	if err := r.db.GetContext(ctx, &g, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("get gym: %w", err)
	}

	return &g, nil
}

func (r *repository) CreateClass(ctx context.Context, class ClassSession) (*ClassSession, error) {
	query := `
		INSERT INTO class_sessions (id, gym_id, title, starts_at, ends_at, capacity, instructor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, gym_id, title, starts_at, ends_at, capacity, instructor, created_at
	`

	var created ClassSession
	err := r.db.GetContext(ctx, &created, query,
		class.ID, class.GymID, class.Title, class.StartsAt, class.EndsAt, class.Capacity, class.Instructor)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("insert class: %w", err)
	}

	return &created, nil
}

func (r *repository) GetClassByID(ctx context.Context, id string) (*ClassSession, error) {
	query := `
		SELECT id, gym_id, title, starts_at, ends_at, capacity, instructor, created_at
		FROM class_sessions
		WHERE id = $1
	`

	var class ClassSession
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}

	return &class, nil
}

// ListClassesByGym returns the gym's classes starting at or after from,
// earliest first. A zero from returns every class.
func (r *repository) ListClassesByGym(ctx context.Context, gymID string, from time.Time) ([]ClassSession, error) {
	query := `
		SELECT id, gym_id, title, starts_at, ends_at, capacity, instructor, created_at
		FROM class_sessions
		WHERE gym_id = $1
	`
	args := []interface{}{gymID}

	if !from.IsZero() {
		query += " AND starts_at >= $2"
		args = append(args, from)
	}

	query += " ORDER BY starts_at ASC"

	classes := []ClassSession{}
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	return classes, nil
}
