package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

const linkColumns = `id, short_code, original_url, owner_id, click_limit, clicks_count, expires_at, created_at, active, version`

const notificationColumns = `id, owner_id, link_id, short_code, type, message, created_at, read_flag`

// Repository owns the PostgreSQL connection pool shared by both stores
type Repository struct {
	db            *sql.DB
	links         *LinkStore
	notifications *NotificationStore
}

// New connects to PostgreSQL using dsn and creates the schema if missing
func New(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{
		db:            db,
		links:         &LinkStore{db: db},
		notifications: &NotificationStore{db: db},
	}, nil
}

// Links returns the link store
func (r *Repository) Links() *LinkStore {
	return r.links
}

// Notifications returns the notification store
func (r *Repository) Notifications() *NotificationStore {
	return r.notifications
}

// Close closes the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

// LinkStore implements repository.LinkStore using PostgreSQL
type LinkStore struct {
	db *sql.DB
}

func (s *LinkStore) Insert(ctx context.Context, link *domain.Link) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO links (short_code, original_url, owner_id, click_limit, clicks_count, expires_at, created_at, active, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 RETURNING id`,
		link.ShortCode, link.OriginalURL, link.OwnerID, nullableInt(link.ClickLimit),
		link.ClicksCount, link.ExpiresAt, link.CreatedAt, link.Active,
	).Scan(&link.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCodeExists
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}
	link.Version = 1
	return nil
}

func (s *LinkStore) FindByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = $1`, code)
	return scanLink(row)
}

func (s *LinkStore) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code existence: %w", err)
	}
	return exists, nil
}

func (s *LinkStore) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
	return scanLink(row)
}

func (s *LinkStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return scanLinks(rows)
}

func (s *LinkStore) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE active AND expires_at <= $1 ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired links: %w", err)
	}
	return scanLinks(rows)
}

// Save performs a compare-and-set on the version column
func (s *LinkStore) Save(ctx context.Context, link *domain.Link) error {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE links
		 SET short_code = $1, original_url = $2, click_limit = $3, clicks_count = $4, active = $5, version = version + 1
		 WHERE id = $6 AND version = $7
		 RETURNING version`,
		link.ShortCode, link.OriginalURL, nullableInt(link.ClickLimit), link.ClicksCount, link.Active,
		link.ID, link.Version,
	).Scan(&version)

	switch {
	case err == nil:
		link.Version = version
		return nil
	case errors.Is(err, sql.ErrNoRows):
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE id = $1)`, link.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return repository.ErrVersionConflict
	case isUniqueViolation(err):
		return repository.ErrCodeExists
	default:
		return fmt.Errorf("failed to save link: %w", err)
	}
}

func (s *LinkStore) Delete(ctx context.Context, link *domain.Link) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, link.ID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

func (s *LinkStore) Close() error {
	return s.db.Close()
}

// NotificationStore implements repository.NotificationStore using PostgreSQL
type NotificationStore struct {
	db *sql.DB
}

func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notifications (owner_id, link_id, short_code, type, message, created_at, read_flag)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		n.OwnerID, n.LinkID, n.ShortCode, string(n.Type), n.Message, n.CreatedAt, n.Read,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return scanNotifications(rows)
}

func (s *NotificationStore) FindUnreadByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE owner_id = $1 AND NOT read_flag ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return scanNotifications(rows)
}

func (s *NotificationStore) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) Save(ctx context.Context, n *domain.Notification) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read_flag = $1, message = $2 WHERE id = $3`, n.Read, n.Message, n.ID)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		link       domain.Link
		clickLimit sql.NullInt64
	)

	err := row.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &link.OwnerID, &clickLimit,
		&link.ClicksCount, &link.ExpiresAt, &link.CreatedAt, &link.Active, &link.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}

	if clickLimit.Valid {
		limit := int(clickLimit.Int64)
		link.ClickLimit = &limit
	}
	link.ExpiresAt = link.ExpiresAt.UTC()
	link.CreatedAt = link.CreatedAt.UTC()
	return &link, nil
}

func scanLinks(rows *sql.Rows) ([]*domain.Link, error) {
	defer rows.Close()

	links := make([]*domain.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}
	return links, nil
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n   domain.Notification
		typ string
	)
	if err := row.Scan(&n.ID, &n.OwnerID, &n.LinkID, &n.ShortCode, &typ, &n.Message, &n.CreatedAt, &n.Read); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func scanNotifications(rows *sql.Rows) ([]*domain.Notification, error) {
	defer rows.Close()

	result := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return result, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

var (
	_ repository.LinkStore         = (*LinkStore)(nil)
	_ repository.NotificationStore = (*NotificationStore)(nil)
)
