package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gatherings/internal/domain"
)

type pastEventRepository struct {
	DB *sql.DB
}

func NewPastEventRepository(db *sql.DB) domain.PastEventRepository {
	return &pastEventRepository{
		DB: db,
	}
}

const pastEventColumns = `id, slug, event_id, title, city, state, venue,
		happened_at, images, videos, description, attendance, created_at, updated_at`

func (r *pastEventRepository) Create(ctx context.Context, p *domain.PastEvent) error {
	query := `
		INSERT INTO past_events (slug, event_id, title, city, state, venue,
			happened_at, images, videos, description, attendance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.Slug, p.EventID, p.Title, p.City, p.State, p.Venue,
		p.HappenedAt, pq.Array(p.Images), pq.Array(p.Videos), p.Description, p.Attendance,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if isUniqueViolation(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *pastEventRepository) GetByID(ctx context.Context, id string) (*domain.PastEvent, error) {
	query := `SELECT ` + pastEventColumns + ` FROM past_events WHERE id = $1`
	return r.scanPastEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *pastEventRepository) GetBySlug(ctx context.Context, slug string) (*domain.PastEvent, error) {
	query := `SELECT ` + pastEventColumns + ` FROM past_events WHERE slug = $1`
	return r.scanPastEvent(r.DB.QueryRowContext(ctx, query, slug))
}

func (r *pastEventRepository) GetByEventID(ctx context.Context, eventID string) (*domain.PastEvent, error) {
	query := `SELECT ` + pastEventColumns + ` FROM past_events WHERE event_id = $1`
	return r.scanPastEvent(r.DB.QueryRowContext(ctx, query, eventID))
}

func (r *pastEventRepository) GetAll(ctx context.Context) ([]*domain.PastEvent, error) {
	query := `SELECT ` + pastEventColumns + ` FROM past_events ORDER BY happened_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]*domain.PastEvent, 0)
	for rows.Next() {
		p, err := scanPastEventRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func (r *pastEventRepository) Update(ctx context.Context, p *domain.PastEvent) error {
	query := `
		UPDATE past_events
		SET slug = $2, title = $3, city = $4, state = $5, venue = $6,
			happened_at = $7, images = $8, videos = $9, description = $10,
			attendance = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Slug, p.Title, p.City, p.State, p.Venue,
		p.HappenedAt, pq.Array(p.Images), pq.Array(p.Videos), p.Description,
		p.Attendance, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrSlugTaken
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pastEventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM past_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pastEventRepository) scanPastEvent(row *sql.Row) (*domain.PastEvent, error) {
	p, err := scanPastEventRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPastEventRow(row rowScanner) (*domain.PastEvent, error) {
	p := &domain.PastEvent{}
	var eventIDNull sql.NullString
	err := row.Scan(
		&p.ID, &p.Slug, &eventIDNull, &p.Title, &p.City, &p.State, &p.Venue,
		&p.HappenedAt, pq.Array(&p.Images), pq.Array(&p.Videos), &p.Description, &p.Attendance,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventIDNull.Valid {
		p.EventID = &eventIDNull.String
	}
	return p, nil
}
