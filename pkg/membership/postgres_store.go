package membership

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// PostgresStore persists memberships in PostgreSQL via pgx. The uniqueness
// invariant is enforced by the unique index on (project_id, user_id) and
// version checks ride on a conditional UPDATE, so correctness does not
// depend on application-side locking.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an established connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("membership: pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

const membershipColumns = "id, project_id, user_id, role, version, added_by, joined_at"

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.Version, &m.AddedBy, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, errors.Join(ErrStoreUnavailable, err)
	}
	return m, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Membership, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE id = $1", id)
	return scanMembership(row)
}

func (s *PostgresStore) GetByProjectAndUser(ctx context.Context, projectID, userID string) (Membership, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE project_id = $1 AND user_id = $2",
		projectID, userID)
	return scanMembership(row)
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID string) ([]Membership, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE project_id = $1 ORDER BY joined_at, id",
		projectID)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.Version, &m.AddedBy, &m.JoinedAt); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) CountByProjectAndRole(ctx context.Context, projectID string, role roles.ProjectRole) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM memberships WHERE project_id = $1 AND role = $2",
		projectID, role).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *PostgresStore) Create(ctx context.Context, m Membership) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memberships (id, project_id, user_id, role, version, added_by, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ProjectID, m.UserID, m.Role, m.Version, m.AddedBy, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMembership
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) UpdateIfVersion(ctx context.Context, id string, next Membership, expectedVersion int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE memberships SET role = $1, version = $2 WHERE id = $3 AND version = $4",
		next.Role, next.Version, id, expectedVersion)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM memberships WHERE id = $1", id)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects PostgreSQL unique constraint errors (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
