package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
)

const uniqueViolation = "23505"

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.MemberRepository
	repository.DepositRepository
	repository.LedgerRepository
	repository.AuditRepository
	repository.SettingsRepository
	repository.NotificationRepository
	repository.StatsRepository
	repository.JobRunRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		MemberRepository:       NewMemberRepository(db),
		DepositRepository:      NewDepositRepository(db),
		LedgerRepository:       NewLedgerRepository(db),
		AuditRepository:        NewAuditRepository(db),
		SettingsRepository:     NewSettingsRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		StatsRepository:        NewStatsRepository(db),
		JobRunRepository:       NewJobRunRepository(db),
	}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

type txRepos struct {
	tx *sql.Tx
}

func (t txRepos) Members() repository.MemberRepository   { return &memberRepository{db: t.tx} }
func (t txRepos) Deposits() repository.DepositRepository { return &depositRepository{db: t.tx} }
func (t txRepos) Ledgers() repository.LedgerRepository   { return &ledgerRepository{db: t.tx} }
func (t txRepos) Audits() repository.AuditRepository     { return &auditRepository{db: t.tx} }
func (t txRepos) JobRuns() repository.JobRunRepository   { return &jobRunRepository{db: t.tx} }

func (t txRepos) Settings() repository.SettingsRepository {
	return &settingsRepository{db: t.tx}
}

// WithinTx runs fn inside a REPEATABLE READ transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txRepos{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapError translates driver errors into domain error kinds.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Errorf(domain.ErrNotFound, "%s not found", what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.Errorf(domain.ErrConflict, "%s already exists", what)
	}
	return err
}

// applied reports whether a conditional write touched at least one row.
func applied(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func pageOffset(page, limit int32) int32 {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
