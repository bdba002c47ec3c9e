package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
)

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, queryGetUserByEmail, email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, queryGetUserByPhone, phone))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, queryGetUserByID, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

// CreateUserWithTOTP inserts the member and the sealed authenticator secret
// in one transaction.
func (s *DB) CreateUserWithTOTP(ctx context.Context, user entity.User, secret entity.TOTPSecret) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUserWithTOTP")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, queryCreateUser,
		user.ID, user.FirstName, user.LastName, user.Email, user.Phone, user.PasswordHash, user.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if _, err := tx.Exec(ctx, queryUpsertTOTPSecret,
		secret.UserID, secret.SealedSecret, secret.Enabled, secret.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) GetTOTPSecret(ctx context.Context, userID int64) (_ *entity.TOTPSecret, err error) {
	ctx, span := s.startSpan(ctx, "GetTOTPSecret")
	defer func() { s.endSpan(span, err) }()

	var sec entity.TOTPSecret
	err = s.conn.QueryRow(ctx, queryGetTOTPSecret, userID).Scan(&sec.UserID, &sec.SealedSecret, &sec.Enabled, &sec.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &sec, nil
}

func (s *DB) UpsertTOTPSecret(ctx context.Context, secret entity.TOTPSecret) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertTOTPSecret")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryUpsertTOTPSecret, secret.UserID, secret.SealedSecret, secret.Enabled, secret.CreatedAt)
	return s.mapError(err)
}
