package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
)

type auditRepository struct {
	db dbtx
}

func NewAuditRepository(db *sql.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// marshalValues encodes a snapshot for a JSONB column; nil maps become NULL.
func marshalValues(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *auditRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	logger.EnterMethod("auditRepository.Create", "action", e.Action, "entityID", e.EntityID, "actorID", e.ActorID)

	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	query := `INSERT INTO audit_entries (action, entity_type, entity_id, actor_id, old_values, new_values, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err = r.db.QueryRowContext(ctx, query,
		e.Action, e.EntityType, e.EntityID, e.ActorID, oldValues, newValues, nullString(e.Reason), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		logger.ExitMethodWithError("auditRepository.Create", err, "action", e.Action)
		return err
	}

	logger.ExitMethod("auditRepository.Create", "auditID", e.ID)
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error) {
	var conds []string
	var args []any
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conds = append(conds, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		conds = append(conds, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_entries`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, pageOffset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`SELECT id, action, entity_type, entity_id, actor_id, old_values, new_values, COALESCE(reason, ''), created_at
		FROM audit_entries%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var oldValues, newValues []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.ActorID, &oldValues, &newValues, &e.Reason, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
				return nil, 0, fmt.Errorf("decode old values: %w", err)
			}
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
				return nil, 0, fmt.Errorf("decode new values: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, count, rows.Err()
}
