package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/birthday-bot/internal/domain"
)

const settingManager = "manager"

// StateRepository implements domain.StateStore using SQLite. Birthdays
// live one row per member; the manager lives in the settings table.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new SQLite-backed StateRepository.
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db.SqlDB}
}

func (r *StateRepository) Load(ctx context.Context) (*domain.State, error) {
	state := domain.NewState()

	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", settingManager,
	).Scan(&state.Manager)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query manager: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT user_id, month, day FROM birthdays ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("query birthdays: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			b      domain.Birthday
		)
		if err := rows.Scan(&userID, &b.Month, &b.Day); err != nil {
			return nil, fmt.Errorf("scan birthday: %w", err)
		}
		state.Users[userID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate birthdays: %w", err)
	}
	return state, nil
}

// Save replaces the stored state with state in a single transaction.
func (r *StateRepository) Save(ctx context.Context, state *domain.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if state.Manager == "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", settingManager); err != nil {
			return fmt.Errorf("clear manager: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			settingManager, state.Manager,
		); err != nil {
			return fmt.Errorf("save manager: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM birthdays"); err != nil {
		return fmt.Errorf("clear birthdays: %w", err)
	}

	now := time.Now().UTC()
	for userID, b := range state.Users {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO birthdays (user_id, month, day, updated_at) VALUES (?, ?, ?, ?)",
			userID, b.Month, b.Day, now,
		); err != nil {
			return fmt.Errorf("insert birthday for %s: %w", userID, err)
		}
	}

	return tx.Commit()
}
