package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"friendsvc/internal/friends"
	"friendsvc/internal/models"
)

// FriendStore implements friends.Store on postgres.
type FriendStore struct {
	pool *pgxpool.Pool
}

func NewFriendStore(pool *pgxpool.Pool) *FriendStore {
	return &FriendStore{pool: pool}
}

// pairCond is the one canonical-pair predicate; every pair-keyed query uses
// it so the symmetric lookup logic cannot diverge. $1 and $2 are the two ids.
const pairCond = `((requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1))`

func (s *FriendStore) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *FriendStore) GetEdge(ctx context.Context, a, b uuid.UUID) (models.Friend, bool, error) {
	q := `
		SELECT requester_id, recipient_id, status, created_at, updated_at
		FROM friends
		WHERE ` + pairCond
	var f models.Friend
	err := s.pool.QueryRow(ctx, q, a, b).Scan(
		&f.RequesterID, &f.RecipientID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Friend{}, false, nil
	}
	if err != nil {
		return models.Friend{}, false, err
	}
	return f, true, nil
}

// InsertEdge creates the pending edge. The pair uniqueness index, not a prior
// read, rejects a second edge for the pair, so two racing requests cannot
// both insert.
func (s *FriendStore) InsertEdge(ctx context.Context, requester, recipient uuid.UUID) error {
	q := `INSERT INTO friends (requester_id, recipient_id, status) VALUES ($1, $2, 'pending')`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, requester, recipient)
		return e
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return friends.ErrEdgeExists
	}
	return err
}

func (s *FriendStore) UpdateStatus(ctx context.Context, a, b uuid.UUID, from, to models.FriendStatus) (bool, error) {
	q := `
		UPDATE friends
		SET status = $3, updated_at = NOW()
		WHERE ` + pairCond + ` AND status = $4
	`
	var affected int64
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, e := tx.Exec(ctx, q, a, b, to, from)
		affected = ct.RowsAffected()
		return e
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *FriendStore) ReopenEdge(ctx context.Context, requester, recipient uuid.UUID) (bool, error) {
	q := `
		UPDATE friends
		SET requester_id = $1, recipient_id = $2, status = 'pending', updated_at = NOW()
		WHERE ` + pairCond + ` AND status = 'declined'
	`
	var affected int64
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, e := tx.Exec(ctx, q, requester, recipient)
		affected = ct.RowsAffected()
		return e
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *FriendStore) DeleteEdge(ctx context.Context, a, b uuid.UUID) error {
	q := `DELETE FROM friends WHERE ` + pairCond
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, a, b)
		return e
	})
}

func (s *FriendStore) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	q := `
		SELECT ` + prefixedUserColumns("u") + `
		FROM friends f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.recipient_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.recipient_id = $1) AND f.status = 'accepted'
		ORDER BY u.id DESC
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// distanceExpr computes the great-circle distance in whole km between the
// caller (c) and the candidate (u) via the haversine formula.
const distanceExpr = `ROUND(2 * 6371 * asin(sqrt(
	pow(sin(radians(u.lat - c.lat) / 2), 2) +
	cos(radians(c.lat)) * cos(radians(u.lat)) * pow(sin(radians(u.long - c.long) / 2), 2)
)))::int`

func (s *FriendStore) Search(ctx context.Context, q friends.SearchQuery) ([]models.User, int, error) {
	args := []any{q.CallerID}
	conds := []string{
		`u.id <> $1`,
		`NOT EXISTS (
			SELECT 1 FROM friends f
			WHERE (f.requester_id = u.id AND f.recipient_id = $1)
			   OR (f.requester_id = $1 AND f.recipient_id = u.id)
		)`,
	}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Name != "" {
		p := arg("%" + q.Name + "%")
		conds = append(conds, fmt.Sprintf(`(u.firstname ILIKE %s OR u.lastname ILIKE %s)`, p, p))
	}
	if q.Email != "" {
		conds = append(conds, fmt.Sprintf(`u.email ILIKE %s`, arg(q.Email+"%")))
	}
	if q.Phone != "" {
		conds = append(conds, fmt.Sprintf(`u.phone LIKE %s`, arg(q.Phone+"%")))
	}
	if q.Distance != nil {
		conds = append(conds, fmt.Sprintf(`%s = %s`, distanceExpr, arg(*q.Distance)))
	}

	from := `
		FROM users u
		CROSS JOIN (SELECT lat, long FROM users WHERE id = $1) c
		WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) `+from, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageQ := `SELECT ` + prefixedUserColumns("u") + ` ` + from +
		` ORDER BY u.id DESC LIMIT ` + arg(q.PerPage) + ` OFFSET ` + arg((q.Page-1)*q.PerPage)

	rows, err := s.pool.Query(ctx, pageQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func prefixedUserColumns(alias string) string {
	cols := strings.Split(userColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
