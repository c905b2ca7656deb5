package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noxius/grana/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var familyID sql.NullInt64

	err := scanner.Scan(&u.ID, &u.Username, &u.Name, &u.Avatar, &u.XPPoints, &u.Level, &familyID, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	if familyID.Valid {
		u.FamilyID = &familyID.Int64
	}
	return &u, nil
}

const userCols = `id, username, name, avatar, xp_points, level, family_id, password_hash, created_at`

func (s *UserStore) Create(ctx context.Context, username, name, passwordHash string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, name, password_hash) VALUES (?, ?, ?)`,
		username, name, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id int64, name, avatar string) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, avatar = ? WHERE id = ?`,
		name, avatar, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) SetFamily(ctx context.Context, id int64, familyID *int64) error {
	var fid sql.NullInt64
	if familyID != nil {
		fid = sql.NullInt64{Int64: *familyID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `UPDATE users SET family_id = ? WHERE id = ?`, fid, id)
	if err != nil {
		return fmt.Errorf("set user family: %w", err)
	}
	return nil
}

// AddXP grants experience points and bumps the level every 100 points.
func (s *UserStore) AddXP(ctx context.Context, id int64, points int) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET xp_points = xp_points + ?, level = 1 + (xp_points + ?) / 100 WHERE id = ?`,
		points, points, id,
	)
	if err != nil {
		return nil, fmt.Errorf("add xp: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) ListByFamily(ctx context.Context, familyID int64) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE family_id = ? ORDER BY name ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list users by family: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
