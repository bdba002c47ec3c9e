package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/dbmigrate"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("container test")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sportsclub"),
		tcpostgres.WithUsername("sportsclub"),
		tcpostgres.WithPassword("sportsclub"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, dbmigrate.Up(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop())
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	user := entity.User{ID: 1, FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Phone: "+15551234567", PasswordHash: "h", CreatedAt: now}
	secret := entity.TOTPSecret{UserID: 1, SealedSecret: "sealed", Enabled: true, CreatedAt: now}

	t.Run("Create and read", func(t *testing.T) {
		require.NoError(t, db.CreateUserWithTOTP(ctx, user, secret))

		byEmail, err := db.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.True(t, now.Equal(byEmail.CreatedAt))

		byPhone, err := db.GetUserByPhone(ctx, user.Phone)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byPhone.Email)

		got, err := db.GetTOTPSecret(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "sealed", got.SealedSecret)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := db.GetUserByID(ctx, 99)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Duplicate email names the constraint", func(t *testing.T) {
		dup := user
		dup.ID, dup.Phone = 2, "+15550000000"

		err := db.CreateUserWithTOTP(ctx, dup, entity.TOTPSecret{UserID: 2, SealedSecret: "x", Enabled: true, CreatedAt: now})

		require.ErrorIs(t, err, goerror.ErrConflict)
		assert.Equal(t, "users_email_key", goerror.ConflictConstraint(err))
		_, err = db.GetTOTPSecret(ctx, 2)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Duplicate phone names the constraint", func(t *testing.T) {
		dup := user
		dup.ID, dup.Email = 3, "other@example.com"

		err := db.CreateUserWithTOTP(ctx, dup, entity.TOTPSecret{UserID: 3, SealedSecret: "x", Enabled: true, CreatedAt: now})

		assert.Equal(t, "users_phone_key", goerror.ConflictConstraint(err))
	})

	t.Run("Upsert secret", func(t *testing.T) {
		require.NoError(t, db.UpsertTOTPSecret(ctx, entity.TOTPSecret{UserID: 1, SealedSecret: "rotated", Enabled: true, CreatedAt: now}))

		got, err := db.GetTOTPSecret(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "rotated", got.SealedSecret)
	})
}

func TestOTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	deliver := func(context.Context) error { return nil }

	rec := entity.OTPRecord{
		Channel:    entity.ChannelPhone,
		Identifier: "+15551234567",
		Code:       "123456",
		ExpiresAt:  now.Add(5 * time.Minute),
		CreatedAt:  now,
	}

	t.Run("Issue replaces and counts", func(t *testing.T) {
		require.NoError(t, db.IssueOTP(ctx, rec, deliver))
		n, err := db.IncrementOTPAttempts(ctx, rec.Channel, rec.Identifier)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		next := rec
		next.Code = "654321"
		next.CreatedAt = now.Add(time.Second)
		require.NoError(t, db.IssueOTP(ctx, next, deliver))

		got, err := db.GetOTP(ctx, rec.Channel, rec.Identifier)
		require.NoError(t, err)
		assert.Equal(t, "654321", got.Code)
		assert.Zero(t, got.Attempts)

		count, err := db.CountOTPIssuances(ctx, rec.Channel, rec.Identifier, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("Channels are separate", func(t *testing.T) {
		_, err := db.GetOTP(ctx, entity.ChannelEmail, rec.Identifier)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Delivery failure rolls back", func(t *testing.T) {
		email := entity.OTPRecord{Channel: entity.ChannelEmail, Identifier: "ana@example.com", Code: "111111", ExpiresAt: now.Add(time.Minute), CreatedAt: now}
		boom := errors.New("smtp down")

		err := db.IssueOTP(ctx, email, func(context.Context) error { return boom })

		require.ErrorIs(t, err, boom)
		_, err = db.GetOTP(ctx, entity.ChannelEmail, email.Identifier)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
		count, err := db.CountOTPIssuances(ctx, entity.ChannelEmail, email.Identifier, time.Time{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.DeleteOTP(ctx, rec.Channel, rec.Identifier))
		assert.ErrorIs(t, db.DeleteOTP(ctx, rec.Channel, rec.Identifier), goerror.ErrNotFound)
		_, err := db.IncrementOTPAttempts(ctx, rec.Channel, rec.Identifier)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}
