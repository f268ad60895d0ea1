package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements scoring.Ledger for PostgreSQL. Rows are
// append-only; the only mutation after insert is flipping the applied flag.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

const transactionColumns = `
	id, user_id, points, action, status, description, metadata,
	reference_id, reference_type, order_id, course_id, applied,
	processed_at, created_at
`

// Append writes a new ledger row. The partial unique index on
// (user_id, reference_id, reference_type) rejects a second completed row for
// the same reference; that violation surfaces as shared.ErrDuplicateAward.
func (r *LedgerRepository) Append(ctx context.Context, txn *scoring.Transaction) error {
	return r.appendOn(ctx, r.conn, txn)
}

// appendOn inserts through any Querier so the awarder can run the same
// insert inside its transaction.
func (r *LedgerRepository) appendOn(ctx context.Context, q Querier, txn *scoring.Transaction) error {
	query := `
		INSERT INTO scoring_transactions (
			id, user_id, points, action, status, description, metadata,
			reference_id, reference_type, order_id, course_id, applied,
			processed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	metadataJSON, err := json.Marshal(scoring.EncodeMetadata(txn.Metadata))
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	_, err = q.Exec(ctx, query,
		txn.ID,
		string(txn.UserID),
		txn.Points.Int64(),
		string(txn.Action),
		string(txn.Status),
		txn.Description,
		metadataJSON,
		nullIfEmpty(txn.Reference.ID),
		nullIfEmpty(txn.Reference.Type),
		nullIfEmpty(txn.OrderID),
		nullIfEmpty(txn.CourseID),
		txn.Applied,
		txn.ProcessedAt,
		txn.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateAward
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByID fetches a single row.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*scoring.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM scoring_transactions WHERE id = $1`

	txn, err := r.scanTransaction(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// FindByReference fetches the completed row for a (user, reference) pair.
func (r *LedgerRepository) FindByReference(ctx context.Context, userID shared.UserID, ref scoring.Reference) (*scoring.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM scoring_transactions
		WHERE user_id = $1 AND reference_id = $2 AND reference_type = $3
		  AND status = 'completed'
	`

	txn, err := r.scanTransaction(r.conn.QueryRow(ctx, query, string(userID), ref.ID, ref.Type))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by reference: %w", err)
	}
	return txn, nil
}

// ListByUser returns the user's rows most-recent-first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID shared.UserID, limit, offset int) ([]*scoring.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM scoring_transactions
		WHERE user_id = $1
		ORDER BY processed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, string(userID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// CountByUser returns the total number of rows for the user.
func (r *LedgerRepository) CountByUser(ctx context.Context, userID shared.UserID) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM scoring_transactions WHERE user_id = $1",
		string(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ListUnapplied returns completed rows whose aggregate increments never
// committed, oldest-first. The age cutoff keeps in-flight awards out of the
// reconciliation pass.
func (r *LedgerRepository) ListUnapplied(ctx context.Context, olderThan time.Time, limit int) ([]*scoring.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM scoring_transactions
		WHERE applied = FALSE AND status = 'completed' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unapplied transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// MarkApplied flags a row as reflected in the aggregate.
func (r *LedgerRepository) MarkApplied(ctx context.Context, id string) error {
	return r.markAppliedOn(ctx, r.conn, id)
}

func (r *LedgerRepository) markAppliedOn(ctx context.Context, q Querier, id string) error {
	result, err := q.Exec(ctx,
		"UPDATE scoring_transactions SET applied = TRUE WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction applied: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *LedgerRepository) scanTransaction(row pgx.Row) (*scoring.Transaction, error) {
	var (
		txn           scoring.Transaction
		userID        string
		points        int64
		action        string
		status        string
		metadataJSON  []byte
		referenceID   *string
		referenceType *string
		orderID       *string
		courseID      *string
	)

	err := row.Scan(
		&txn.ID,
		&userID,
		&points,
		&action,
		&status,
		&txn.Description,
		&metadataJSON,
		&referenceID,
		&referenceType,
		&orderID,
		&courseID,
		&txn.Applied,
		&txn.ProcessedAt,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.UserID = shared.UserID(userID)
	txn.Points = shared.Points(points)
	txn.Action = scoring.Action(action)
	txn.Status = scoring.Status(status)

	if len(metadataJSON) > 0 {
		var raw map[string]interface{}
		if err := json.Unmarshal(metadataJSON, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
		txn.Metadata = scoring.DecodeMetadata(raw)
	}

	if referenceID != nil && referenceType != nil {
		txn.Reference = scoring.Reference{ID: *referenceID, Type: *referenceType}
	}
	if orderID != nil {
		txn.OrderID = *orderID
	}
	if courseID != nil {
		txn.CourseID = *courseID
	}

	return &txn, nil
}

func (r *LedgerRepository) scanTransactions(rows pgx.Rows) ([]*scoring.Transaction, error) {
	txns := make([]*scoring.Transaction, 0)
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// nullIfEmpty maps "" to SQL NULL so optional columns stay NULL-able.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
