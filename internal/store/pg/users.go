package pg

import (
	"context"
	"database/sql"
	"errors"

	"evident.org/internal/auth"
)

type userStore struct {
	db *sql.DB
}

const userColumns = `id, username, email, hashed_password, full_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var (
		u        auth.User
		fullName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, username, email, hashed_password, full_name, role, is_active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, nullIfEmpty(u.FullName), u.Role, u.IsActive)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where username=$1`, username))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email))
}

func (s *userStore) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *userStore) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.exec(ctx, `update users set hashed_password=$2, updated_at=now() where id=$1`, id, hash)
}

func (s *userStore) UpdateRole(ctx context.Context, id string, role auth.Role) error {
	return s.exec(ctx, `update users set role=$2, updated_at=now() where id=$1`, id, role)
}

func (s *userStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx, `update users set is_active=$2, updated_at=now() where id=$1`, id, active)
}

func (s *userStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
