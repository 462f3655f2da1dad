package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalAction enumerates approval log actions.
type ApprovalAction string

const (
	ApprovalSubmit  ApprovalAction = "SUBMIT"
	ApprovalApprove ApprovalAction = "APPROVE"
	ApprovalReject  ApprovalAction = "REJECT"
)

// ApprovalLog is one step in an approval chain, keyed by the owning module
// name and the record it refers to.
type ApprovalLog struct {
	ID      int64
	Module  string
	RefID   uuid.UUID
	ActorID int64
	Action  ApprovalAction
	Note    string
	At      time.Time
}

func (l ApprovalLog) validate() error {
	switch {
	case l.Module == "":
		return errors.New("approval module required")
	case l.RefID == uuid.Nil:
		return errors.New("approval ref id required")
	case l.ActorID == 0:
		return errors.New("approval actor required")
	case l.Action == "":
		return errors.New("approval action required")
	}
	return nil
}

// ApprovalRecorder persists approval history, e.g. for budget adjustments.
type ApprovalRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewApprovalRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalRecorder {
	return &ApprovalRecorder{pool: pool, logger: logger}
}

// Record appends an approval entry. A zero At defaults to the database clock.
func (r *ApprovalRecorder) Record(ctx context.Context, entry ApprovalLog) error {
	if r == nil || r.pool == nil {
		return errors.New("approval recorder not initialised")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	var at any
	if !entry.At.IsZero() {
		at = entry.At
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO approvals (module, ref_id, actor_id, action, note, at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		entry.Module, entry.RefID, entry.ActorID, string(entry.Action), entry.Note, at)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("record approval", slog.String("module", entry.Module), slog.Any("error", err))
		}
		return fmt.Errorf("record approval: %w", err)
	}
	return nil
}

// List returns the approval chain for module/ref ordered oldest first.
func (r *ApprovalRecorder) List(ctx context.Context, module string, ref uuid.UUID) ([]ApprovalLog, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("approval recorder not initialised")
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, module, ref_id, actor_id, action, note, at
		 FROM approvals WHERE module = $1 AND ref_id = $2 ORDER BY at ASC`, module, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chain []ApprovalLog
	for rows.Next() {
		var entry ApprovalLog
		var action string
		if err := rows.Scan(&entry.ID, &entry.Module, &entry.RefID, &entry.ActorID, &action, &entry.Note, &entry.At); err != nil {
			return nil, err
		}
		entry.Action = ApprovalAction(action)
		chain = append(chain, entry)
	}
	return chain, rows.Err()
}

// EnsureSubmit records the initial SUBMIT step exactly once per ref.
func (r *ApprovalRecorder) EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error {
	if r == nil || r.pool == nil {
		return errors.New("approval recorder not initialised")
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM approvals WHERE module = $1 AND ref_id = $2 AND action = 'SUBMIT')`,
		module, ref).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.Record(ctx, ApprovalLog{Module: module, RefID: ref, ActorID: actorID, Action: ApprovalSubmit, Note: note})
}
