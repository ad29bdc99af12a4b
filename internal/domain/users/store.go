package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrportal/internal/platform/db"
)

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

const userColumns = "id::text, email, display_name, role, department, password_hash, last_login, created_at"

func (s *Store) Create(ctx context.Context, u User) (User, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO users (id, email, display_name, password_hash, role, department)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+userColumns,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role, u.Department)
	out, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return out, nil
}

func (s *Store) ByID(ctx context.Context, id string) (User, error) {
	return s.one(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *Store) ByEmail(ctx context.Context, email string) (User, error) {
	return s.one(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Query)) + "%"

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM users
    WHERE lower(display_name) LIKE $1 OR lower(email) LIKE $1 OR lower(role) LIKE $1
  `, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE lower(display_name) LIKE $1 OR lower(email) LIKE $1 OR lower(role) LIKE $1
    ORDER BY display_name, email
    LIMIT $2 OFFSET $3
  `, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", id)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) one(ctx context.Context, query string, arg string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Department, &u.PasswordHash, &u.LastLogin, &u.CreatedAt)
	return u, err
}
