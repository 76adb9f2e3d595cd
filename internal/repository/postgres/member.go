package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
)

const memberColumns = `id, member_number, email, password_hash, name, phone_number, national_id, address,
	COALESCE(avatar_url, ''), role, status, COALESCE(status_reason, ''), approved_by, approved_at,
	COALESCE(device_token, ''), created_at, updated_at`

type memberRepository struct {
	db dbtx
}

func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	m := &domain.Member{}
	var memberNumber, approvedBy sql.NullInt64
	var approvedAt sql.NullTime
	err := row.Scan(
		&m.ID, &memberNumber, &m.Email, &m.PasswordHash, &m.Name, &m.PhoneNumber, &m.NationalID, &m.Address,
		&m.AvatarURL, &m.Role, &m.Status, &m.StatusReason, &approvedBy, &approvedAt,
		&m.DeviceToken, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if memberNumber.Valid {
		m.MemberNumber = &memberNumber.Int64
	}
	if approvedBy.Valid {
		m.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		m.ApprovedAt = &approvedAt.Time
	}
	return m, nil
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	logger.EnterMethod("memberRepository.Create", "email", m.Email)

	query := `INSERT INTO members (email, password_hash, name, phone_number, national_id, address, avatar_url, role, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		m.Email, m.PasswordHash, m.Name, m.PhoneNumber, m.NationalID, m.Address, nullString(m.AvatarURL),
		m.Role, m.Status, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		err = mapError(err, "member")
		logger.ExitMethodWithError("memberRepository.Create", err, "email", m.Email)
		return err
	}

	logger.ExitMethod("memberRepository.Create", "memberID", m.ID)
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(email) = LOWER($1)`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) UpdateProfile(ctx context.Context, m *domain.Member) error {
	logger.EnterMethod("memberRepository.UpdateProfile", "memberID", m.ID)

	query := `UPDATE members SET name = $1, phone_number = $2, address = $3, avatar_url = $4, device_token = $5, updated_at = $6 WHERE id = $7`
	m.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, m.Name, m.PhoneNumber, m.Address, nullString(m.AvatarURL), nullString(m.DeviceToken), m.UpdatedAt, m.ID)
	if err != nil {
		logger.ExitMethodWithError("memberRepository.UpdateProfile", err, "memberID", m.ID)
		return err
	}
	ok, err := applied(res)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "member not found")
	}

	logger.ExitMethod("memberRepository.UpdateProfile", "memberID", m.ID)
	return nil
}

func (r *memberRepository) List(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, int32, error) {
	logger.EnterMethod("memberRepository.List", "status", filter.Status, "query", filter.Query)

	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR phone_number LIKE $%d)", n, n, n))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM members`+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("memberRepository.List", err)
		return nil, 0, err
	}

	args = append(args, filter.Limit, pageOffset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`SELECT %s FROM members%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		memberColumns, where, len(args)-1, len(args))
	logger.DatabaseCall("SELECT", query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("memberRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("memberRepository.List", "count", len(members), "total", count)
	return members, count, nil
}

func (r *memberRepository) Approve(ctx context.Context, id, adminID int64, at time.Time) (int64, bool, error) {
	logger.EnterMethod("memberRepository.Approve", "memberID", id, "adminID", adminID)

	query := `UPDATE members
		SET status = 'ACTIVE',
		    member_number = COALESCE(member_number, nextval('member_number_seq')),
		    status_reason = NULL,
		    approved_by = $1,
		    approved_at = $2,
		    updated_at = $2
		WHERE id = $3 AND status = 'PENDING'
		RETURNING member_number`

	var number int64
	err := r.db.QueryRowContext(ctx, query, adminID, at, id).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("memberRepository.Approve", "memberID", id, "applied", false)
		return 0, false, nil
	}
	if err != nil {
		logger.ExitMethodWithError("memberRepository.Approve", err, "memberID", id)
		return 0, false, err
	}

	logger.ExitMethod("memberRepository.Approve", "memberID", id, "memberNumber", number)
	return number, true, nil
}

func (r *memberRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.MemberStatus, reason string, at time.Time) (bool, error) {
	logger.EnterMethod("memberRepository.UpdateStatus", "memberID", id, "from", from, "to", to)

	query := `UPDATE members SET status = $1, status_reason = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, to, nullString(reason), at, id, from)
	if err != nil {
		logger.ExitMethodWithError("memberRepository.UpdateStatus", err, "memberID", id)
		return false, err
	}
	ok, err := applied(res)
	if err != nil {
		return false, err
	}

	logger.ExitMethod("memberRepository.UpdateStatus", "memberID", id, "applied", ok)
	return ok, nil
}

func (r *memberRepository) ListActiveWithoutDeposit(ctx context.Context, month time.Time) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members m
		WHERE m.status = 'ACTIVE' AND NOT EXISTS (
			SELECT 1 FROM deposits d
			WHERE d.member_id = m.id AND d.deposit_month = $1 AND d.status IN ('PENDING', 'APPROVED')
		)
		ORDER BY m.id`
	rows, err := r.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
