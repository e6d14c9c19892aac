package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	"github.com/handlepay/handlepay/internal/domain/history"
)

const historyColumns = `id, entry_id, execution_id, flow_id, flow_kind, owner, display_identity, counterparty, amount::text, direction, tx_ref, block_number, timestamp_ref, signature, created_at`

// HistoryRepository implements history.Repository.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append inserts e. An existing entry for the same execution is left
// untouched and reported as history.ErrDuplicateExecution.
func (r *HistoryRepository) Append(ctx context.Context, e *history.Entry) error {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO history_entries
		(entry_id, execution_id, flow_id, flow_kind, owner, display_identity, counterparty, amount, direction, tx_ref, block_number, timestamp_ref, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (execution_id) DO NOTHING
		RETURNING id
	`, e.EntryID, e.ExecutionID, e.FlowID, e.FlowKind, e.Owner.Hex(), e.DisplayIdentity, e.Counterparty.Hex(), e.Amount.UnitsString(), e.Direction, e.TxRef, int64(e.BlockNumber), e.TimestampRef, e.Signature, e.CreatedAt).Scan(&id)
	if err == pgx.ErrNoRows {
		return history.ErrDuplicateExecution
	}
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *HistoryRepository) GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*history.Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+historyColumns+` FROM history_entries WHERE execution_id=$1`, executionID)
	return scanHistory(row)
}

// List returns the owner's entries, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter history.Filter, limit, offset int) ([]*history.Entry, error) {
	query, args := historyListQuery(filter, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*history.Entry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func historyListQuery(filter history.Filter, limit, offset int) (string, []interface{}) {
	query := `SELECT ` + historyColumns + ` FROM history_entries`
	args := []interface{}{}
	idx := 1
	if !filter.Owner.IsZero() {
		query += " WHERE owner=$" + itoa(idx)
		args = append(args, filter.Owner.Hex())
		idx++
	}
	if filter.Direction != nil {
		query += addWhere(query) + " direction=$" + itoa(idx)
		args = append(args, string(*filter.Direction))
		idx++
	}
	if filter.Since != nil {
		query += addWhere(query) + " created_at >= $" + itoa(idx)
		args = append(args, *filter.Since)
		idx++
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)
	return query, args
}

func scanHistory(row pgx.Row) (*history.Entry, error) {
	var (
		e            history.Entry
		owner        string
		counterparty string
		units        string
		direction    string
		block        int64
	)
	if err := row.Scan(&e.ID, &e.EntryID, &e.ExecutionID, &e.FlowID, &e.FlowKind, &owner, &e.DisplayIdentity, &counterparty, &units, &direction, &e.TxRef, &block, &e.TimestampRef, &e.Signature, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var err error
	if e.Owner, err = account.Parse(owner); err != nil {
		return nil, fmt.Errorf("history entry %s owner: %w", e.EntryID, err)
	}
	if e.Counterparty, err = account.Parse(counterparty); err != nil {
		return nil, fmt.Errorf("history entry %s counterparty: %w", e.EntryID, err)
	}
	if e.Amount, err = amount.ParseUnits(units); err != nil {
		return nil, fmt.Errorf("history entry %s amount: %w", e.EntryID, err)
	}
	e.Direction = history.Direction(direction)
	if block > 0 {
		e.BlockNumber = uint64(block)
	}
	return &e, nil
}

func addWhere(query string) string {
	if strings.Contains(query, " WHERE ") {
		return " AND"
	}
	return " WHERE"
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
