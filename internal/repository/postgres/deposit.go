package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
)

const depositSelect = `SELECT d.id, d.member_id, d.deposit_month, d.amount, d.penalty, d.total_amount, d.payment_date,
	d.payment_method, d.status, COALESCE(d.proof_url, ''), COALESCE(d.notes, ''), COALESCE(d.rejection_reason, ''),
	d.approved_by, d.approved_at, d.created_at, d.updated_at, m.name,
	c.deposit_id, c.received_by, c.handover_date, c.location,
	w.deposit_id, w.provider, w.sender_number, w.transaction_id,
	b.deposit_id, b.bank_name, b.account_holder, b.account_number, b.transaction_ref
	FROM deposits d
	JOIN members m ON m.id = d.member_id
	LEFT JOIN deposit_cash_details c ON c.deposit_id = d.id
	LEFT JOIN deposit_mobile_wallet_details w ON w.deposit_id = d.id
	LEFT JOIN deposit_bank_transfer_details b ON b.deposit_id = d.id`

// liveStatuses occupy the (member, month) slot.
var liveStatuses = []string{string(domain.DepositStatusPending), string(domain.DepositStatusApproved)}

type depositRepository struct {
	db dbtx
}

func NewDepositRepository(db *sql.DB) repository.DepositRepository {
	return &depositRepository{db: db}
}

func scanDeposit(row rowScanner) (*domain.Deposit, error) {
	d := &domain.Deposit{}
	var approvedBy sql.NullInt64
	var approvedAt sql.NullTime
	var cashID, walletID, bankID sql.NullInt64
	var cashReceivedBy, cashLocation sql.NullString
	var cashHandover sql.NullTime
	var walletProvider, walletSender, walletTxID sql.NullString
	var bankName, bankHolder, bankAccount, bankRef sql.NullString

	err := row.Scan(
		&d.ID, &d.MemberID, &d.DepositMonth, &d.Amount, &d.Penalty, &d.TotalAmount, &d.PaymentDate,
		&d.PaymentMethod, &d.Status, &d.ProofURL, &d.Notes, &d.RejectionReason,
		&approvedBy, &approvedAt, &d.CreatedAt, &d.UpdatedAt, &d.MemberName,
		&cashID, &cashReceivedBy, &cashHandover, &cashLocation,
		&walletID, &walletProvider, &walletSender, &walletTxID,
		&bankID, &bankName, &bankHolder, &bankAccount, &bankRef,
	)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		d.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		d.ApprovedAt = &approvedAt.Time
	}
	if cashID.Valid {
		d.Details.Cash = &domain.CashDetail{ReceivedBy: cashReceivedBy.String, Location: cashLocation.String}
		if cashHandover.Valid {
			d.Details.Cash.HandoverDate = &cashHandover.Time
		}
	}
	if walletID.Valid {
		d.Details.MobileWallet = &domain.MobileWalletDetail{
			Provider:      walletProvider.String,
			SenderNumber:  walletSender.String,
			TransactionID: walletTxID.String,
		}
	}
	if bankID.Valid {
		d.Details.BankTransfer = &domain.BankTransferDetail{
			BankName:       bankName.String,
			AccountHolder:  bankHolder.String,
			AccountNumber:  bankAccount.String,
			TransactionRef: bankRef.String,
		}
	}
	return d, nil
}

func (r *depositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	logger.EnterMethod("depositRepository.Create", "memberID", d.MemberID, "month", d.DepositMonth)

	query := `INSERT INTO deposits (member_id, deposit_month, amount, penalty, total_amount, payment_date, payment_method,
	          status, proof_url, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		d.MemberID, d.DepositMonth, d.Amount, d.Penalty, d.TotalAmount, d.PaymentDate, d.PaymentMethod,
		d.Status, nullString(d.ProofURL), nullString(d.Notes), d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID)
	if err != nil {
		err = mapError(err, "deposit for this month")
		logger.ExitMethodWithError("depositRepository.Create", err, "memberID", d.MemberID)
		return err
	}

	logger.ExitMethod("depositRepository.Create", "depositID", d.ID)
	return nil
}

func (r *depositRepository) GetByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	d, err := scanDeposit(r.db.QueryRowContext(ctx, depositSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "deposit")
	}
	return d, nil
}

func (r *depositRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Deposit, error) {
	logger.DatabaseCall("SELECT FOR UPDATE", "deposits", "depositID", id)
	d, err := scanDeposit(r.db.QueryRowContext(ctx, depositSelect+` WHERE d.id = $1 FOR UPDATE OF d`, id))
	if err != nil {
		return nil, mapError(err, "deposit")
	}
	return d, nil
}

func (r *depositRepository) GetLiveByMemberMonth(ctx context.Context, memberID int64, month time.Time) (*domain.Deposit, error) {
	query := depositSelect + ` WHERE d.member_id = $1 AND d.deposit_month = $2 AND d.status = ANY($3)`
	d, err := scanDeposit(r.db.QueryRowContext(ctx, query, memberID, month, pq.Array(liveStatuses)))
	if err != nil {
		return nil, mapError(err, "deposit")
	}
	return d, nil
}

func (r *depositRepository) ExistsLive(ctx context.Context, memberID int64, month time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM deposits WHERE member_id = $1 AND deposit_month = $2 AND status = ANY($3))`
	err := r.db.QueryRowContext(ctx, query, memberID, month, pq.Array(liveStatuses)).Scan(&exists)
	return exists, err
}

func (r *depositRepository) List(ctx context.Context, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	logger.EnterMethod("depositRepository.List", "status", filter.Status, "method", filter.Method)

	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.MemberID != nil {
		add("d.member_id = $%d", *filter.MemberID)
	}
	if filter.Status != "" {
		add("d.status = $%d", filter.Status)
	}
	if filter.Method != "" {
		add("d.payment_method = $%d", filter.Method)
	}
	if filter.From != nil {
		add("d.deposit_month >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("d.deposit_month <= $%d", *filter.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM deposits d`+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("depositRepository.List", err)
		return nil, 0, err
	}

	args = append(args, filter.Limit, pageOffset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`%s%s ORDER BY d.deposit_month DESC, d.id DESC LIMIT $%d OFFSET $%d`,
		depositSelect, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, 0, err
		}
		deposits = append(deposits, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("depositRepository.List", "count", len(deposits), "total", count)
	return deposits, count, nil
}

func (r *depositRepository) Update(ctx context.Context, d *domain.Deposit) (bool, error) {
	logger.EnterMethod("depositRepository.Update", "depositID", d.ID)

	query := `UPDATE deposits SET amount = $1, penalty = $2, total_amount = $3, payment_date = $4, payment_method = $5,
	          proof_url = $6, notes = $7, updated_at = $8
	          WHERE id = $9 AND status = 'PENDING'`
	d.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		d.Amount, d.Penalty, d.TotalAmount, d.PaymentDate, d.PaymentMethod,
		nullString(d.ProofURL), nullString(d.Notes), d.UpdatedAt, d.ID,
	)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.Update", err, "depositID", d.ID)
		return false, err
	}
	ok, err := applied(res)
	if err != nil {
		return false, err
	}

	logger.ExitMethod("depositRepository.Update", "depositID", d.ID, "applied", ok)
	return ok, nil
}

func (r *depositRepository) Delete(ctx context.Context, id int64) (bool, error) {
	logger.EnterMethod("depositRepository.Delete", "depositID", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM deposits WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.Delete", err, "depositID", id)
		return false, err
	}
	ok, err := applied(res)
	if err != nil {
		return false, err
	}

	logger.ExitMethod("depositRepository.Delete", "depositID", id, "applied", ok)
	return ok, nil
}

func (r *depositRepository) MarkApproved(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
	query := `UPDATE deposits SET status = 'APPROVED', approved_by = $1, approved_at = $2, updated_at = $2
	          WHERE id = $3 AND status = 'PENDING'`
	return r.transition(ctx, "MarkApproved", id, query, adminID, at, id)
}

func (r *depositRepository) MarkRejected(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	query := `UPDATE deposits SET status = 'REJECTED', rejection_reason = $1, updated_at = $2
	          WHERE id = $3 AND status = 'PENDING'`
	return r.transition(ctx, "MarkRejected", id, query, reason, at, id)
}

func (r *depositRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE deposits SET status = 'CANCELLED', updated_at = $1 WHERE id = $2 AND status = 'PENDING'`
	return r.transition(ctx, "MarkCancelled", id, query, at, id)
}

func (r *depositRepository) transition(ctx context.Context, op string, id int64, query string, args ...any) (bool, error) {
	method := "depositRepository." + op
	logger.EnterMethod(method, "depositID", id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError(method, err, "depositID", id)
		return false, err
	}
	ok, err := applied(res)
	if err != nil {
		return false, err
	}

	logger.ExitMethod(method, "depositID", id, "applied", ok)
	return ok, nil
}

func (r *depositRepository) CreateDetails(ctx context.Context, d *domain.Deposit) error {
	var err error
	switch d.PaymentMethod {
	case domain.PaymentMethodCash:
		c := d.Details.Cash
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO deposit_cash_details (deposit_id, received_by, handover_date, location) VALUES ($1, $2, $3, $4)`,
			d.ID, c.ReceivedBy, c.HandoverDate, c.Location)
	case domain.PaymentMethodMobileWallet:
		w := d.Details.MobileWallet
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO deposit_mobile_wallet_details (deposit_id, provider, sender_number, transaction_id) VALUES ($1, $2, $3, $4)`,
			d.ID, w.Provider, w.SenderNumber, w.TransactionID)
	case domain.PaymentMethodBankTransfer:
		b := d.Details.BankTransfer
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO deposit_bank_transfer_details (deposit_id, bank_name, account_holder, account_number, transaction_ref) VALUES ($1, $2, $3, $4, $5)`,
			d.ID, b.BankName, b.AccountHolder, b.AccountNumber, b.TransactionRef)
	default:
		return fmt.Errorf("unknown payment method %q", d.PaymentMethod)
	}
	if err != nil {
		logger.ExitMethodWithError("depositRepository.CreateDetails", err, "depositID", d.ID)
	}
	return err
}

func (r *depositRepository) UpdateDetails(ctx context.Context, d *domain.Deposit) error {
	var res sql.Result
	var err error
	switch d.PaymentMethod {
	case domain.PaymentMethodCash:
		c := d.Details.Cash
		res, err = r.db.ExecContext(ctx,
			`UPDATE deposit_cash_details SET received_by = $1, handover_date = $2, location = $3 WHERE deposit_id = $4`,
			c.ReceivedBy, c.HandoverDate, c.Location, d.ID)
	case domain.PaymentMethodMobileWallet:
		w := d.Details.MobileWallet
		res, err = r.db.ExecContext(ctx,
			`UPDATE deposit_mobile_wallet_details SET provider = $1, sender_number = $2, transaction_id = $3 WHERE deposit_id = $4`,
			w.Provider, w.SenderNumber, w.TransactionID, d.ID)
	case domain.PaymentMethodBankTransfer:
		b := d.Details.BankTransfer
		res, err = r.db.ExecContext(ctx,
			`UPDATE deposit_bank_transfer_details SET bank_name = $1, account_holder = $2, account_number = $3, transaction_ref = $4 WHERE deposit_id = $5`,
			b.BankName, b.AccountHolder, b.AccountNumber, b.TransactionRef, d.ID)
	default:
		return fmt.Errorf("unknown payment method %q", d.PaymentMethod)
	}
	if err != nil {
		logger.ExitMethodWithError("depositRepository.UpdateDetails", err, "depositID", d.ID)
		return err
	}
	ok, err := applied(res)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("deposit detail row missing")
	}
	return nil
}

func (r *depositRepository) DeleteDetails(ctx context.Context, depositID int64, method domain.PaymentMethod) error {
	table, ok := detailTables[method]
	if !ok {
		return fmt.Errorf("unknown payment method %q", method)
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE deposit_id = $1`, depositID)
	return err
}

var detailTables = map[domain.PaymentMethod]string{
	domain.PaymentMethodCash:         "deposit_cash_details",
	domain.PaymentMethodMobileWallet: "deposit_mobile_wallet_details",
	domain.PaymentMethodBankTransfer: "deposit_bank_transfer_details",
}
