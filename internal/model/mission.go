package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MissionType string

const (
	MissionSaving      MissionType = "SAVING"
	MissionRestriction MissionType = "RESTRICTION"
	MissionInvestment  MissionType = "INVESTMENT"
	MissionTracking    MissionType = "TRACKING"
)

type MissionStatus string

const (
	MissionCompleted MissionStatus = "COMPLETED"
	MissionFailed    MissionStatus = "FAILED"
)

type DailyMission struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Type         MissionType     `json:"type"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Category     GoalCategory    `json:"category"`
	XPReward     int             `json:"xp_reward"`
	FamilyID     int64           `json:"family_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MissionStatusRecord marks a mission's outcome for one day.
type MissionStatusRecord struct {
	ID         int64         `json:"id"`
	Date       time.Time     `json:"date"`
	StatusType MissionStatus `json:"status_type"`
	MissionID  int64         `json:"mission_id"`
}
