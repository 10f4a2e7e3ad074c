package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"media.share/internal/models"
	"media.share/migrations"
)

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(databaseURL); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(databaseURL string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// PutLink inserts a new row. A dead row (spent or expired) under the same
// token is overwritten; a live one fails with ErrTokenExists.
func (p *PostgresStore) PutLink(ctx context.Context, link *models.Link) error {
	result, err := p.db.ExecContext(ctx, `
		INSERT INTO links (token, file_id, owner_id, created_at, expires_at, single_use, consumed)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (token) DO UPDATE
		SET file_id=$2, owner_id=$3, created_at=$4, expires_at=$5, single_use=$6, consumed=FALSE
		WHERE (links.single_use AND links.consumed)
		   OR (links.expires_at IS NOT NULL AND links.expires_at < NOW())
	`, link.Token, link.FileID, link.OwnerID, link.CreatedAt, nullTime(link.ExpiresAt), link.SingleUse)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenExists
	}
	return nil
}

func (p *PostgresStore) GetLink(ctx context.Context, token string) (*models.Link, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT token, file_id, owner_id, created_at, expires_at, single_use, consumed
		FROM links
		WHERE token = $1
	`, token)

	link := &models.Link{}
	var expiresAt sql.NullTime
	err := row.Scan(&link.Token, &link.FileID, &link.OwnerID, &link.CreatedAt,
		&expiresAt, &link.SingleUse, &link.Consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		link.ExpiresAt = expiresAt.Time
	}
	return link, nil
}

func (p *PostgresStore) DeleteLink(ctx context.Context, token string) (bool, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM links WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (p *PostgresStore) ListLinks(ctx context.Context) ([]models.LinkSummary, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT token, created_at
		FROM links
		WHERE NOT (single_use AND consumed)
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.LinkSummary
	for rows.Next() {
		var s models.LinkSummary
		if err := rows.Scan(&s.Token, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ConsumeLink flips consumed with a conditional update so that concurrent
// resolutions of the same token cannot both win the row.
func (p *PostgresStore) ConsumeLink(ctx context.Context, token string, now time.Time) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE links
		SET consumed = TRUE
		WHERE token = $1
		  AND NOT consumed
		  AND (expires_at IS NULL OR expires_at > $2)
	`, token, now)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Lost the race or the row is dead; read back to say which.
	link, err := p.GetLink(ctx, token)
	if err != nil {
		return err
	}
	if link.Expired(now) {
		return ErrExpired
	}
	if link.Consumed {
		return ErrConsumed
	}
	return ErrNotFound
}

func (p *PostgresStore) AddAdmin(ctx context.Context, admin *models.Admin) (bool, error) {
	result, err := p.db.ExecContext(ctx, `
		INSERT INTO admins (user_id, display_name, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, admin.UserID, admin.DisplayName, admin.AddedAt)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (p *PostgresStore) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (p *PostgresStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (p *PostgresStore) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, display_name, added_at
		FROM admins
		ORDER BY added_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.UserID, &a.DisplayName, &a.AddedAt); err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (p *PostgresStore) SetAdminName(ctx context.Context, userID int64, name string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE admins SET display_name = $2
		WHERE user_id = $1 AND display_name <> $2
	`, userID, name)
	return err
}

func (p *PostgresStore) SetPending(ctx context.Context, action *models.PendingAction) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pending_actions (actor_id, kind, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (actor_id) DO UPDATE
		SET kind = $2, created_at = NOW()
	`, action.ActorID, string(action.Kind))
	return err
}

func (p *PostgresStore) TakePending(ctx context.Context, actorID int64) (*models.PendingAction, error) {
	row := p.db.QueryRowContext(ctx, `
		DELETE FROM pending_actions WHERE actor_id = $1
		RETURNING kind, created_at
	`, actorID)

	var kind string
	var createdAt time.Time
	err := row.Scan(&kind, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// A stale slot behaves as if it never existed.
	if time.Since(createdAt) > pendingTTL {
		return nil, ErrNotFound
	}
	return &models.PendingAction{ActorID: actorID, Kind: models.PendingKind(kind)}, nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
