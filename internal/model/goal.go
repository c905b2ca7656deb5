package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalCategory string

const (
	GoalAdventure GoalCategory = "ADVENTURE"
	GoalShield    GoalCategory = "SHIELD"
	GoalUpgrade   GoalCategory = "UPGRADE"
	GoalPotion    GoalCategory = "POTION"
	GoalTreasure  GoalCategory = "TREASURE"
	GoalEquipment GoalCategory = "EQUIPMENT"
	GoalOther     GoalCategory = "OTHER"
)

type GoalPriority string

const (
	PriorityLow    GoalPriority = "LOW"
	PriorityMedium GoalPriority = "MEDIUM"
	PriorityHigh   GoalPriority = "HIGH"
)

type Goal struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	TargetAmount   decimal.Decimal `json:"target_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Category       GoalCategory    `json:"category"`
	Priority       GoalPriority    `json:"priority"`
	AlertEnabled   bool            `json:"alert_enabled"`
	AlertThreshold int             `json:"alert_threshold"`
	FamilyID       int64           `json:"family_id"`
	CreatedAt      time.Time       `json:"created_at"`
}
