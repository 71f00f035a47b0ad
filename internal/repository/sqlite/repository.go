package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

const linkColumns = `id, short_code, original_url, owner_id, click_limit, clicks_count, expires_at, created_at, active, version`

const notificationColumns = `id, owner_id, link_id, short_code, type, message, created_at, read_flag`

// Repository owns the SQLite connection shared by the link and notification stores
type Repository struct {
	db            *sql.DB
	links         *LinkStore
	notifications *NotificationStore
}

// New opens (or creates) the SQLite database at databasePath and applies migrations
func New(databasePath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers, so optimistic updates never see SQLITE_BUSY
	// and ":memory:" databases are shared by every caller.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{
		db:            db,
		links:         &LinkStore{db: db},
		notifications: &NotificationStore{db: db},
	}, nil
}

// Links returns the link store backed by this database
func (r *Repository) Links() *LinkStore {
	return r.links
}

// Notifications returns the notification store backed by this database
func (r *Repository) Notifications() *NotificationStore {
	return r.notifications
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// LinkStore implements repository.LinkStore using SQLite
type LinkStore struct {
	db *sql.DB
}

// Insert creates a new link row
func (s *LinkStore) Insert(ctx context.Context, link *domain.Link) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO links (short_code, original_url, owner_id, click_limit, clicks_count, expires_at, created_at, active, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		link.ShortCode, link.OriginalURL, link.OwnerID.String(), nullableInt(link.ClickLimit),
		link.ClicksCount, link.ExpiresAt.UnixNano(), link.CreatedAt.UnixNano(), link.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCodeExists
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read link id: %w", err)
	}
	link.ID = id
	link.Version = 1
	return nil
}

// FindByShortCode retrieves a link by its short code
func (s *LinkStore) FindByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = ?`, code)
	return scanLink(row)
}

// ExistsByShortCode checks whether a short code is taken
func (s *LinkStore) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM links WHERE short_code = ?`, code).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check short code existence: %w", err)
	}
	return count > 0, nil
}

// FindByID retrieves a link by its ID
func (s *LinkStore) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	return scanLink(row)
}

// FindByOwner retrieves an owner's links, newest first
func (s *LinkStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return scanLinks(rows)
}

// FindExpiredActive retrieves active links with expires_at <= now
func (s *LinkStore) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE active = 1 AND expires_at <= ? ORDER BY id`,
		now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired links: %w", err)
	}
	return scanLinks(rows)
}

// Save writes the mutable fields of a link when its version matches
func (s *LinkStore) Save(ctx context.Context, link *domain.Link) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE links
		 SET short_code = ?, original_url = ?, click_limit = ?, clicks_count = ?, active = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		link.ShortCode, link.OriginalURL, nullableInt(link.ClickLimit), link.ClicksCount, link.Active,
		link.ID, link.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCodeExists
		}
		return fmt.Errorf("failed to save link: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM links WHERE id = ?`, link.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	link.Version++
	return nil
}

// Delete removes a link by its ID
func (s *LinkStore) Delete(ctx context.Context, link *domain.Link) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, link.ID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *LinkStore) Close() error {
	return s.db.Close()
}

// NotificationStore implements repository.NotificationStore using SQLite
type NotificationStore struct {
	db *sql.DB
}

// Insert appends a notification row
func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (owner_id, link_id, short_code, type, message, created_at, read_flag)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.OwnerID.String(), n.LinkID, n.ShortCode, string(n.Type), n.Message, n.CreatedAt.UnixNano(), n.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	n.ID = id
	return nil
}

// FindByOwner retrieves an owner's notifications, newest first
func (s *NotificationStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return scanNotifications(rows)
}

// FindUnreadByOwner retrieves an owner's unread notifications, newest first
func (s *NotificationStore) FindUnreadByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE owner_id = ? AND read_flag = 0 ORDER BY created_at DESC, id DESC`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return scanNotifications(rows)
}

// FindByID retrieves a notification by its ID
func (s *NotificationStore) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// Save updates the read flag of an existing notification
func (s *NotificationStore) Save(ctx context.Context, n *domain.Notification) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read_flag = ?, message = ? WHERE id = ?`, n.Read, n.Message, n.ID)
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

// Close closes the underlying database
func (s *NotificationStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		link       domain.Link
		owner      string
		clickLimit sql.NullInt64
		expiresAt  int64
		createdAt  int64
	)

	err := row.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &owner, &clickLimit,
		&link.ClicksCount, &expiresAt, &createdAt, &link.Active, &link.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}

	link.OwnerID, err = uuid.Parse(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner id %q: %w", owner, err)
	}
	if clickLimit.Valid {
		limit := int(clickLimit.Int64)
		link.ClickLimit = &limit
	}
	link.ExpiresAt = time.Unix(0, expiresAt).UTC()
	link.CreatedAt = time.Unix(0, createdAt).UTC()
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
		n         domain.Notification
		owner     string
		typ       string
		createdAt int64
	)

	if err := row.Scan(&n.ID, &owner, &n.LinkID, &n.ShortCode, &typ, &n.Message, &createdAt, &n.Read); err != nil {
		return nil, err
	}

	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner id %q: %w", owner, err)
	}
	n.OwnerID = ownerID
	n.Type = domain.NotificationType(typ)
	n.CreatedAt = time.Unix(0, createdAt).UTC()
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
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Ensure the stores implement the interfaces
var (
	_ repository.LinkStore         = (*LinkStore)(nil)
	_ repository.NotificationStore = (*NotificationStore)(nil)
)
