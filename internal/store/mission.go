package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/noxius/grana/internal/model"
)

type MissionStore struct {
	db DBTX
}

func NewMissionStore(db DBTX) *MissionStore {
	return &MissionStore{db: db}
}

func scanMission(scanner interface{ Scan(...any) error }) (*model.DailyMission, error) {
	var m model.DailyMission

	err := scanner.Scan(
		&m.ID, &m.Title, &m.Description, &m.StartDate, &m.EndDate,
		&m.Type, &m.TargetAmount, &m.Category, &m.XPReward, &m.FamilyID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const missionCols = `id, title, description, start_date, end_date, type, target_amount, category, xp_reward, family_id, created_at`

func (s *MissionStore) Create(ctx context.Context, m model.DailyMission) (*model.DailyMission, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_missions (title, description, start_date, end_date, type, target_amount, category, xp_reward, family_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.StartDate, m.EndDate, m.Type, m.TargetAmount, m.Category, m.XPReward, m.FamilyID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert mission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MissionStore) GetByID(ctx context.Context, id int64) (*model.DailyMission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+missionCols+` FROM daily_missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

func (s *MissionStore) ListByFamily(ctx context.Context, familyID int64) ([]model.DailyMission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+missionCols+` FROM daily_missions WHERE family_id = ? ORDER BY start_date DESC, id DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var missions []model.DailyMission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

func (s *MissionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM daily_missions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	return nil
}

// --- Status record methods ---

func scanStatusRecord(scanner interface{ Scan(...any) error }) (*model.MissionStatusRecord, error) {
	var r model.MissionStatusRecord
	if err := scanner.Scan(&r.ID, &r.Date, &r.StatusType, &r.MissionID); err != nil {
		return nil, err
	}
	return &r, nil
}

const statusRecordCols = `id, date, status_type, mission_id`

func (s *MissionStore) RecordStatus(ctx context.Context, missionID int64, date time.Time, status model.MissionStatus) (*model.MissionStatusRecord, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO mission_status_records (date, status_type, mission_id) VALUES (?, ?, ?)`,
		date, status, missionID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert status record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+statusRecordCols+` FROM mission_status_records WHERE id = ?`, id)
	r, err := scanStatusRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get status record: %w", err)
	}
	return r, nil
}

func (s *MissionStore) ListStatusRecords(ctx context.Context, missionID int64) ([]model.MissionStatusRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+statusRecordCols+` FROM mission_status_records WHERE mission_id = ? ORDER BY date DESC, id DESC`, missionID)
	if err != nil {
		return nil, fmt.Errorf("list status records: %w", err)
	}
	defer rows.Close()

	var records []model.MissionStatusRecord
	for rows.Next() {
		r, err := scanStatusRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
