package bootstrap

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/config"
	"moneypool-backend/internal/queue"
	"moneypool-backend/internal/repository/postgres"
	"moneypool-backend/internal/service"
)

func newStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewStore(db), mock
}

func TestSeedSettings(t *testing.T) {
	store, mock := newStore(t)
	cfg := &config.Config{Pool: config.PoolConfig{MinDepositAmount: 1000, PenaltyRatePerThousand: 30, PenaltyStartDay: 16}}

	mock.ExpectExec("INSERT INTO system_settings").
		WithArgs(int64(1000), int64(30), 16, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, SeedSettings(context.Background(), cfg, store))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("Inline", func(t *testing.T) {
		store, _ := newStore(t)
		cfg := &config.Config{
			SMTP:          config.SMTPConfig{Provider: "log"},
			Notifications: config.NotificationsConfig{Mode: "inline"},
		}
		n, closeFn, err := NewNotifier(ctx, cfg, store)
		require.NoError(t, err)
		assert.IsType(t, &service.Dispatcher{}, n)
		assert.NoError(t, closeFn())
	})

	t.Run("Queue", func(t *testing.T) {
		store, _ := newStore(t)
		mr := miniredis.RunT(t)
		cfg := &config.Config{Notifications: config.NotificationsConfig{Mode: "queue", RedisAddr: mr.Addr()}}

		n, closeFn, err := NewNotifier(ctx, cfg, store)
		require.NoError(t, err)
		assert.IsType(t, &queue.AsyncNotifier{}, n)
		assert.NoError(t, closeFn())
	})

	t.Run("QueueUnreachable", func(t *testing.T) {
		store, _ := newStore(t)
		cfg := &config.Config{Notifications: config.NotificationsConfig{Mode: "queue", RedisAddr: "127.0.0.1:1"}}

		_, _, err := NewNotifier(ctx, cfg, store)
		assert.ErrorContains(t, err, "redis ping")
	})

	t.Run("BadEmailProvider", func(t *testing.T) {
		store, _ := newStore(t)
		cfg := &config.Config{SMTP: config.SMTPConfig{Provider: "pigeon"}}

		_, _, err := NewNotifier(ctx, cfg, store)
		assert.Error(t, err)
	})
}
