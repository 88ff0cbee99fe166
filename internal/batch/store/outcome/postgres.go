package outcome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
)

// PostgresStore persists payment outcomes in PostgreSQL.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock ports.Clock
}

type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock used for recorded_at, for testability.
func WithPostgresClock(clock ports.Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		pool:  pool,
		clock: ports.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the outcomes table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payment_outcomes (
			id           BIGSERIAL PRIMARY KEY,
			batch_id     TEXT        NOT NULL,
			row_number   INT         NOT NULL,
			recipient    JSONB       NOT NULL,
			success      BOOLEAN     NOT NULL,
			status       TEXT        NOT NULL DEFAULT '',
			fee_sats     BIGINT      NOT NULL DEFAULT 0,
			error_code   TEXT,
			error_msg    TEXT,
			recorded_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS payment_outcomes_batch_idx ON payment_outcomes (batch_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate payment_outcomes: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, batchID string, outcome models.PaymentOutcome) error {
	recipient, err := json.Marshal(outcome.Recipient)
	if err != nil {
		return fmt.Errorf("encode recipient: %w", err)
	}

	var errCode, errMsg *string
	if outcome.Err != nil {
		code := string(outcome.Err.Code)
		errCode, errMsg = &code, &outcome.Err.Message
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO payment_outcomes
			(batch_id, row_number, recipient, success, status, fee_sats, error_code, error_msg, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		batchID, outcome.Recipient.RowNumber, recipient, outcome.Success,
		outcome.Status, outcome.FeeSats, errCode, errMsg, s.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert payment outcome: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByBatch(ctx context.Context, batchID string) ([]models.PaymentOutcome, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT recipient, success, status, fee_sats, error_code, error_msg
		FROM payment_outcomes
		WHERE batch_id = $1
		ORDER BY id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query payment outcomes: %w", err)
	}
	defer rows.Close()

	var out []models.PaymentOutcome
	for rows.Next() {
		var (
			recipientJSON   []byte
			outcome         models.PaymentOutcome
			errCode, errMsg *string
		)
		if err := rows.Scan(&recipientJSON, &outcome.Success, &outcome.Status, &outcome.FeeSats, &errCode, &errMsg); err != nil {
			return nil, fmt.Errorf("scan payment outcome: %w", err)
		}
		if err := json.Unmarshal(recipientJSON, &outcome.Recipient); err != nil {
			return nil, fmt.Errorf("decode recipient: %w", err)
		}
		if errCode != nil {
			outcome.Err = models.NewRecipientError(models.ErrorCode(*errCode), deref(errMsg))
		}
		out = append(out, outcome)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
