package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustverify/internal/sharing/models"
)

// PostgresStore persists preferences and history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed sharing store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const preferenceColumns = `id, user_id, recipient_email, share_name, share_phone, is_active, created_at, updated_at`

// UpsertPreference inserts or updates on (user_id, recipient_email). An
// existing row keeps its id and created_at and is reactivated.
func (s *PostgresStore) UpsertPreference(ctx context.Context, pref models.SharingPreference, now time.Time) (models.SharingPreference, error) {
	query := `
		INSERT INTO sharing_preferences (` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		ON CONFLICT (user_id, recipient_email) DO UPDATE SET
			share_name = EXCLUDED.share_name,
			share_phone = EXCLUDED.share_phone,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + preferenceColumns
	row := s.db.QueryRowContext(ctx, query,
		uuid.New(),
		pref.UserID,
		models.NormalizeEmail(pref.RecipientEmail),
		pref.ShareName,
		pref.SharePhone,
		now,
	)
	saved, err := scanPreference(row)
	if err != nil {
		return models.SharingPreference{}, fmt.Errorf("upsert sharing preference: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, userID string) ([]models.SharingPreference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+preferenceColumns+`
		FROM sharing_preferences
		WHERE user_id = $1 AND is_active
		ORDER BY recipient_email`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sharing preferences: %w", err)
	}
	defer rows.Close()

	out := []models.SharingPreference{}
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sharing preference: %w", err)
		}
		out = append(out, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sharing preferences: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, userID, recipientEmail string) (models.SharingPreference, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+preferenceColumns+`
		FROM sharing_preferences
		WHERE user_id = $1 AND recipient_email = $2 AND is_active`,
		userID, models.NormalizeEmail(recipientEmail))
	pref, err := scanPreference(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SharingPreference{}, ErrNotFound
		}
		return models.SharingPreference{}, fmt.Errorf("find sharing preference: %w", err)
	}
	return pref, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, userID, recipientEmail string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sharing_preferences
		SET is_active = FALSE, updated_at = $3
		WHERE user_id = $1 AND recipient_email = $2 AND is_active`,
		userID, models.NormalizeEmail(recipientEmail), now)
	if err != nil {
		return fmt.Errorf("deactivate sharing preference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate sharing preference: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, entry models.SharingHistory) error {
	data, err := json.Marshal(entry.SharedData)
	if err != nil {
		return fmt.Errorf("marshal shared data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sharing_history (id, user_id, recipient_email, shared_data, status, shared_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.RecipientEmail, data, string(entry.Status), entry.SharedAt)
	if err != nil {
		return fmt.Errorf("append sharing history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, userID string) ([]models.SharingHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recipient_email, shared_data, status, shared_at
		FROM sharing_history
		WHERE user_id = $1
		ORDER BY shared_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sharing history: %w", err)
	}
	defer rows.Close()

	out := []models.SharingHistory{}
	for rows.Next() {
		var (
			entry  models.SharingHistory
			data   []byte
			status string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.RecipientEmail, &data, &status, &entry.SharedAt); err != nil {
			return nil, fmt.Errorf("scan sharing history: %w", err)
		}
		if err := json.Unmarshal(data, &entry.SharedData); err != nil {
			return nil, fmt.Errorf("decode shared data: %w", err)
		}
		entry.Status = models.HistoryStatus(status)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sharing history: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreference(row scanner) (models.SharingPreference, error) {
	var (
		pref               models.SharingPreference
		active             bool
		createdAt, updated time.Time
	)
	if err := row.Scan(&pref.ID, &pref.UserID, &pref.RecipientEmail, &pref.ShareName, &pref.SharePhone,
		&active, &createdAt, &updated); err != nil {
		return models.SharingPreference{}, err
	}
	pref.IsActive = &active
	pref.CreatedAt = &createdAt
	pref.UpdatedAt = &updated
	return pref, nil
}
