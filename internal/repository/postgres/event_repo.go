package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gatherings/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, slug, title, description, city, state, venue,
		contact_name, contact_email, contact_phone, start_at, end_at, status,
		recurrence, cover_image, images, featured, featured_until, owner_id,
		created_at, updated_at`

// isUniqueViolation reports whether err is the postgres unique-constraint
// error (code 23505). The unique slug index is the backstop for the slug
// retry loop under concurrent writers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	recJSON, err := json.Marshal(e.Recurrence)
	if err != nil {
		return fmt.Errorf("marshal recurrence: %w", err)
	}
	query := `
		INSERT INTO events (slug, title, description, city, state, venue,
			contact_name, contact_email, contact_phone, start_at, end_at, status,
			recurrence, cover_image, images, featured, featured_until, owner_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		e.Slug, e.Title, e.Description, e.City, e.State, e.Venue,
		e.ContactName, e.ContactEmail, e.ContactPhone, e.StartAt, e.EndAt, e.Status,
		recJSON, e.CoverImage, pq.Array(e.Images), e.Featured, e.FeaturedUntil, nullString(e.OwnerID),
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if isUniqueViolation(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, slug))
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	recJSON, err := json.Marshal(e.Recurrence)
	if err != nil {
		return fmt.Errorf("marshal recurrence: %w", err)
	}
	query := `
		UPDATE events
		SET slug = $2, title = $3, description = $4, city = $5, state = $6,
			venue = $7, contact_name = $8, contact_email = $9, contact_phone = $10,
			start_at = $11, end_at = $12, status = $13, recurrence = $14,
			cover_image = $15, images = $16, featured = $17, featured_until = $18,
			updated_at = $19
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Slug, e.Title, e.Description, e.City, e.State,
		e.Venue, e.ContactName, e.ContactEmail, e.ContactPhone,
		e.StartAt, e.EndAt, e.Status, recJSON,
		e.CoverImage, pq.Array(e.Images), e.Featured, e.FeaturedUntil,
		e.UpdatedAt,
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

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *eventRepository) scanEvent(row *sql.Row) (*domain.Event, error) {
	e, err := scanEventRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func scanEventRow(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var recJSON []byte
	var endNull, featuredUntilNull sql.NullTime
	var ownerNull sql.NullString
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.City, &e.State, &e.Venue,
		&e.ContactName, &e.ContactEmail, &e.ContactPhone, &e.StartAt, &endNull, &e.Status,
		&recJSON, &e.CoverImage, pq.Array(&e.Images), &e.Featured, &featuredUntilNull, &ownerNull,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recJSON, &e.Recurrence); err != nil {
		return nil, fmt.Errorf("unmarshal recurrence: %w", err)
	}
	if endNull.Valid {
		e.EndAt = &endNull.Time
	}
	if featuredUntilNull.Valid {
		e.FeaturedUntil = &featuredUntilNull.Time
	}
	if ownerNull.Valid {
		e.OwnerID = ownerNull.String
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
