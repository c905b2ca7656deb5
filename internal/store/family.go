package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noxius/grana/internal/model"
)

type FamilyStore struct {
	db DBTX
}

func NewFamilyStore(db DBTX) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	if err := scanner.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, name, created_at`

func (s *FamilyStore) Create(ctx context.Context, name string) (*model.Family, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) GetByID(ctx context.Context, id int64) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) List(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+familyCols+` FROM families ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

func (s *FamilyStore) Update(ctx context.Context, id int64, name string) (*model.Family, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE families SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}
