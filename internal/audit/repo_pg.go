package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const auditCols = `id, patient_id, actor_id, event_type, detail, request_id, created_at`

func (r *RepoPG) Create(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, patient_id, actor_id, event_type, detail, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.PatientID, e.ActorID, e.Type, detail, e.RequestID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var detail []byte
	err := row.Scan(&e.ID, &e.PatientID, &e.ActorID, &e.Type, &detail, &e.RequestID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &e.Detail); err != nil {
			return nil, fmt.Errorf("unmarshal detail: %w", err)
		}
	}
	return &e, nil
}

// ListByPatient returns the patient's trail ordered by timestamp descending.
func (r *RepoPG) ListByPatient(ctx context.Context, patientID string, filter TrailFilter) ([]*Entry, int, error) {
	where := []string{"patient_id = $1"}
	args := []interface{}{patientID}
	idx := 2

	if filter.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		where = append(where, fmt.Sprintf("event_type = ANY($%d)", idx))
		args = append(args, types)
		idx++
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")

	var total int
	countQ := fmt.Sprintf("SELECT COUNT(*) FROM audit_log %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf("SELECT %s FROM audit_log %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		auditCols, whereClause, idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
