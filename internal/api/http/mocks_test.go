package http_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/service"
	"moneypool-backend/internal/utils"
)

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input service.RegisterInput) (*domain.Member, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthTokens, *domain.Member, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.AuthTokens), args.Get(1).(*domain.Member), args.Error(2)
}
func (m *MockAuthService) RefreshToken(ctx context.Context, refresh string) (*service.AuthTokens, error) {
	args := m.Called(ctx, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthTokens), args.Error(1)
}

// MockDepositService
type MockDepositService struct {
	mock.Mock
}

func (m *MockDepositService) CreateDeposit(ctx context.Context, actor domain.Actor, input service.DepositInput) (*domain.Deposit, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositService) UpdateDeposit(ctx context.Context, actor domain.Actor, id int64, input service.DepositUpdate) (*domain.Deposit, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositService) DeleteDeposit(ctx context.Context, actor domain.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
func (m *MockDepositService) CancelDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositService) GetMyDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositService) ListMyDeposits(ctx context.Context, actor domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).([]domain.Deposit), args.Get(1).(int32), args.Error(2)
}
func (m *MockDepositService) PreviewPenalty(ctx context.Context, month, paymentDate time.Time, amount int64) (*utils.PenaltyBreakdown, error) {
	args := m.Called(ctx, month, paymentDate, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*utils.PenaltyBreakdown), args.Error(1)
}

// MockApprovalService
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) ApproveDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, admin, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockApprovalService) RejectDeposit(ctx context.Context, admin domain.Actor, id int64, reason string) (*domain.Deposit, error) {
	args := m.Called(ctx, admin, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockApprovalService) ListDeposits(ctx context.Context, admin domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	args := m.Called(ctx, admin, filter)
	return args.Get(0).([]domain.Deposit), args.Get(1).(int32), args.Error(2)
}
func (m *MockApprovalService) GetDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, admin, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockApprovalService) ListAuditEntries(ctx context.Context, admin domain.Actor, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error) {
	args := m.Called(ctx, admin, filter)
	return args.Get(0).([]domain.AuditEntry), args.Get(1).(int32), args.Error(2)
}
