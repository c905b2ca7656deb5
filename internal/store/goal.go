package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noxius/grana/internal/model"
)

type GoalStore struct {
	db DBTX
}

func NewGoalStore(db DBTX) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var dueDate sql.NullTime
	var alertEnabled int

	err := scanner.Scan(
		&g.ID, &g.Title, &g.Description, &g.TargetAmount, &g.CurrentAmount,
		&dueDate, &g.Category, &g.Priority, &alertEnabled, &g.AlertThreshold,
		&g.FamilyID, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		g.DueDate = &dueDate.Time
	}
	g.AlertEnabled = alertEnabled != 0
	return &g, nil
}

const goalCols = `id, title, description, target_amount, current_amount, due_date, category, priority, alert_enabled, alert_threshold, family_id, created_at`

func (s *GoalStore) Create(ctx context.Context, g model.Goal) (*model.Goal, error) {
	var alert int
	if g.AlertEnabled {
		alert = 1
	}
	var due sql.NullTime
	if g.DueDate != nil {
		due = sql.NullTime{Time: *g.DueDate, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (title, description, target_amount, current_amount, due_date, category, priority, alert_enabled, alert_threshold, family_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.Description, g.TargetAmount, g.CurrentAmount, due, g.Category, g.Priority, alert, g.AlertThreshold, g.FamilyID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *GoalStore) GetByID(ctx context.Context, id int64) (*model.Goal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListByFamily(ctx context.Context, familyID int64) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalCols+` FROM goals WHERE family_id = ? ORDER BY created_at DESC, id DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// AddProgress moves the goal's saved amount forward (or back, for a negative delta).
func (s *GoalStore) AddProgress(ctx context.Context, id int64, delta decimal.Decimal) (*model.Goal, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, `UPDATE goals SET current_amount = ? WHERE id = ?`,
		g.CurrentAmount.Add(delta), id)
	if err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *GoalStore) Update(ctx context.Context, g model.Goal) (*model.Goal, error) {
	var alert int
	if g.AlertEnabled {
		alert = 1
	}
	var due sql.NullTime
	if g.DueDate != nil {
		due = sql.NullTime{Time: *g.DueDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, description = ?, target_amount = ?, due_date = ?, category = ?, priority = ?, alert_enabled = ?, alert_threshold = ? WHERE id = ?`,
		g.Title, g.Description, g.TargetAmount, due, g.Category, g.Priority, alert, g.AlertThreshold, g.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.GetByID(ctx, g.ID)
}

func (s *GoalStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
