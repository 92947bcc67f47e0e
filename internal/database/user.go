package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"friendsvc/internal/accounts"
	"friendsvc/internal/models"
	"friendsvc/internal/passreset"
)

// UserStore implements accounts.Store and passreset.Directory on postgres.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, firstname, lastname, email, phone, password, address, lat, long, otp, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.Phone, &u.Password,
		&u.Address, &u.Lat, &u.Long, &u.OTP, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	q := `
		INSERT INTO users (id, firstname, lastname, email, phone, password, address, lat, long)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			u.ID, u.Firstname, u.Lastname, u.Email, u.Phone, u.Password,
			u.Address, u.Lat, u.Long,
		).Scan(&u.CreatedAt, &u.UpdatedAt)
	})
	return mapUniqueViolation(err)
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (models.User, bool, error) {
	return s.getWhere(ctx, "id = $1", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return s.getWhere(ctx, "email = $1", email)
}

func (s *UserStore) GetByPhone(ctx context.Context, phone string) (models.User, bool, error) {
	return s.getWhere(ctx, "phone = $1", phone)
}

func (s *UserStore) GetByPasscode(ctx context.Context, code int) (models.User, bool, error) {
	return s.getWhere(ctx, "otp = $1", code)
}

func (s *UserStore) getWhere(ctx context.Context, cond string, arg any) (models.User, bool, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, u models.User) error {
	q := `
		UPDATE users
		SET firstname = $1, lastname = $2, email = $3, phone = $4,
		    address = $5, lat = $6, long = $7, updated_at = NOW()
		WHERE id = $8
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q,
			u.Firstname, u.Lastname, u.Email, u.Phone,
			u.Address, u.Lat, u.Long, u.ID,
		)
		return e
	})
	return mapUniqueViolation(err)
}

// SetPasscode stores the active reset code. The partial unique index on otp
// turns a cross-account collision into passreset.ErrCodeTaken.
func (s *UserStore) SetPasscode(ctx context.Context, userID uuid.UUID, code int) error {
	q := `UPDATE users SET otp = $1, updated_at = NOW() WHERE id = $2`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, code, userID)
		return e
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return passreset.ErrCodeTaken
	}
	return err
}

// ConsumePasscode sets the new credential and clears the code in one
// statement; a stale code matches no row.
func (s *UserStore) ConsumePasscode(ctx context.Context, code int, passwordHash string) (bool, error) {
	q := `UPDATE users SET password = $1, otp = NULL, updated_at = NOW() WHERE otp = $2`
	var affected int64
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, e := tx.Exec(ctx, q, passwordHash, code)
		affected = ct.RowsAffected()
		return e
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// mapUniqueViolation turns a 23505 on the email or phone constraint into the
// typed duplicate error the accounts service reports.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return &accounts.DuplicateError{Field: "email"}
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return &accounts.DuplicateError{Field: "phone"}
	default:
		return err
	}
}
