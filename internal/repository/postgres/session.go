package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rapidsite/internal/domain"
	"rapidsite/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface using PostgreSQL
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewSessionRepository creates a new PostgresSessionRepository
func NewSessionRepository(config *RepositoryConfig, tx repositories.TransactionManager) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     tx,
		logger: config.Logger,
	}
}

// Create inserts a new session row with no turns
func (r *PostgresSessionRepository) Create(ctx context.Context, record *repositories.SessionRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, site_name, brief, phase, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		record.ID,
		record.SiteName,
		record.Brief,
		record.Phase,
		time.Now(),
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("session %s: %w", record.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// Save overwrites the session's brief, phase and transcript in one transaction.
// The transcript is replaced wholesale: the session service owns the capped,
// in-order turn list and the stored copy mirrors it exactly.
func (r *PostgresSessionRepository) Save(ctx context.Context, record *repositories.SessionRecord) error {
	return r.tx.ExecTx(ctx, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.pool)

		updateQuery := fmt.Sprintf(`
			UPDATE %s SET site_name = $2, brief = $3, phase = $4, updated_at = $5
			WHERE id = $1
		`, r.tables.Sessions)

		tag, err := executor.Exec(txCtx, updateQuery,
			record.ID,
			record.SiteName,
			record.Brief,
			record.Phase,
			time.Now(),
		)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("session %s: %w", record.ID, domain.ErrNotFound)
		}

		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, r.tables.SessionTurns)
		if _, err := executor.Exec(txCtx, deleteQuery, record.ID); err != nil {
			return fmt.Errorf("clear session turns: %w", err)
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (id, session_id, position, role, content, selection, interaction_consumed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.tables.SessionTurns)

		for i, turn := range record.Turns {
			var selection interface{}
			if len(turn.Selection) > 0 {
				selection = turn.Selection
			}
			if _, err := executor.Exec(txCtx, insertQuery,
				turn.ID,
				record.ID,
				i,
				turn.Role,
				turn.Content,
				selection,
				turn.InteractionConsumed,
				turn.CreatedAt,
			); err != nil {
				return fmt.Errorf("save turn %s: %w", turn.ID, err)
			}
		}

		return nil
	})
}

// SaveBriefAndPhase is the degraded save path: only the session row is
// touched, previously stored turns stay as they were.
func (r *PostgresSessionRepository) SaveBriefAndPhase(ctx context.Context, id string, brief json.RawMessage, phase string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET brief = $2, phase = $3, updated_at = $4
		WHERE id = $1
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, brief, phase, time.Now())
	if err != nil {
		return fmt.Errorf("save brief and phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Get loads a session with its turns in chronological order
func (r *PostgresSessionRepository) Get(ctx context.Context, id string) (*repositories.SessionRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, site_name, brief, phase, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Sessions)

	var record repositories.SessionRecord
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.SiteName,
		&record.Brief,
		&record.Phase,
		&record.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	turnsQuery := fmt.Sprintf(`
		SELECT id, role, content, selection, interaction_consumed, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY position ASC
	`, r.tables.SessionTurns)

	rows, err := executor.Query(ctx, turnsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get session turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn repositories.TurnRecord
		if err := rows.Scan(
			&turn.ID,
			&turn.Role,
			&turn.Content,
			&turn.Selection,
			&turn.InteractionConsumed,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		record.Turns = append(record.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return &record, nil
}
