package pg

import (
	"context"
	"database/sql"
	"errors"

	"evident.org/internal/auth"
)

type documentStore struct {
	db *sql.DB
}

func (s *documentStore) Find(ctx context.Context, id string) (*auth.Document, error) {
	var (
		d       auth.Document
		mission sql.NullString
		project sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, title, file_path, file_type, mission, project, uploaded_by, uploaded_at, total_chunks
		from documents where id=$1
	`, id).Scan(&d.ID, &d.Title, &d.FilePath, &d.FileType, &mission, &project, &d.UploadedBy, &d.UploadedAt, &d.TotalChunks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Mission = mission.String
	d.Project = project.String
	return &d, nil
}

type documentPermissionStore struct {
	db *sql.DB
}

const permColumns = `id, document_id, user_id, role, permission_type, created_at`

func scanPermission(row interface{ Scan(...any) error }) (auth.DocumentPermission, error) {
	var (
		p      auth.DocumentPermission
		userID sql.NullString
		role   sql.NullString
	)
	err := row.Scan(&p.ID, &p.DocumentID, &userID, &role, &p.Type, &p.CreatedAt)
	if err != nil {
		return auth.DocumentPermission{}, err
	}
	p.UserID = userID.String
	p.Role = auth.Role(role.String)
	return p, nil
}

func (s *documentPermissionStore) Grant(ctx context.Context, p *auth.DocumentPermission) error {
	row := s.db.QueryRowContext(ctx, `
		insert into document_permissions (id, document_id, user_id, role, permission_type)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, p.ID, p.DocumentID, nullIfEmpty(p.UserID), nullIfEmpty(string(p.Role)), p.Type)
	if err := row.Scan(&p.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *documentPermissionStore) Revoke(ctx context.Context, documentID, permissionID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from document_permissions where id=$1 and document_id=$2
	`, permissionID, documentID)
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

func (s *documentPermissionStore) ForUser(ctx context.Context, documentID, userID string) ([]auth.DocumentPermission, error) {
	return s.query(ctx, `
		select `+permColumns+` from document_permissions
		where document_id=$1 and user_id=$2
	`, documentID, userID)
}

func (s *documentPermissionStore) ForRole(ctx context.Context, documentID string, role auth.Role) ([]auth.DocumentPermission, error) {
	return s.query(ctx, `
		select `+permColumns+` from document_permissions
		where document_id=$1 and role=$2 and user_id is null
	`, documentID, string(role))
}

func (s *documentPermissionStore) ListForDocument(ctx context.Context, documentID string) ([]auth.DocumentPermission, error) {
	return s.query(ctx, `
		select `+permColumns+` from document_permissions
		where document_id=$1 order by created_at
	`, documentID)
}

func (s *documentPermissionStore) query(ctx context.Context, q string, args ...any) ([]auth.DocumentPermission, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.DocumentPermission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
