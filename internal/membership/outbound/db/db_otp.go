package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

// IssueOTP replaces the live code and records the issuance, then calls
// deliver while the transaction is still open. Nothing is kept unless
// deliver succeeds.
func (s *DB) IssueOTP(ctx context.Context, rec entity.OTPRecord, deliver func(ctx context.Context) error) (err error) {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer func() { s.endSpan(span, err) }()

	q := otpQueriesFor(rec.Channel)

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, q.upsert, rec.Identifier, rec.Code, rec.ExpiresAt, rec.CreatedAt); err != nil {
		return s.mapError(err)
	}

	if _, err := tx.Exec(ctx, queryCreateIssuance, rec.Channel.String(), rec.Identifier, rec.CreatedAt); err != nil {
		return s.mapError(err)
	}

	if err := deliver(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) GetOTP(ctx context.Context, ch entity.Channel, identifier string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetOTP")
	defer func() { s.endSpan(span, err) }()

	rec := entity.OTPRecord{Channel: ch}
	err = s.conn.QueryRow(ctx, otpQueriesFor(ch).get, identifier).
		Scan(&rec.Identifier, &rec.Code, &rec.ExpiresAt, &rec.Attempts, &rec.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &rec, nil
}

func (s *DB) DeleteOTP(ctx context.Context, ch entity.Channel, identifier string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, otpQueriesFor(ch).delete, identifier)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) IncrementOTPAttempts(ctx context.Context, ch entity.Channel, identifier string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOTPAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int
	if err = s.conn.QueryRow(ctx, otpQueriesFor(ch).increment, identifier).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}
	return attempts, nil
}

func (s *DB) CountOTPIssuances(ctx context.Context, ch entity.Channel, identifier string, since time.Time) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountOTPIssuances")
	defer func() { s.endSpan(span, err) }()

	var n int
	if err = s.conn.QueryRow(ctx, queryCountIssuances, ch.String(), identifier, since).Scan(&n); err != nil {
		return 0, s.mapError(err)
	}
	return n, nil
}
