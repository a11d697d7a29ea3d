package models

import (
	"time"
)

type AdminAction string

const (
	ActionExpireCreditsRun  AdminAction = "EXPIRE_CREDITS_RUN"
	ActionDoctorPayoutRun   AdminAction = "UPDATE_DOCTORS_BALANCE_RUN"
	ActionPenaltyCreated    AdminAction = "PENALTY_CREATED"
	ActionPenaltyResolved   AdminAction = "PENALTY_RESOLVED"
	ActionDoctorVerified    AdminAction = "DOCTOR_VERIFIED"
	ActionDoctorRejected    AdminAction = "DOCTOR_REJECTED"
)

// AdminLog is the append-only audit trail of admin and cron mutations. The
// payout job also uses its own latest UPDATE_DOCTORS_BALANCE_RUN row as the
// watermark bounding the next run's query window.
type AdminLog struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
	ActorID   *uint       `json:"actor_id,omitempty"` // nil for cron-triggered runs
	Actor     *User       `json:"-" gorm:"foreignKey:ActorID"`
	Action    AdminAction `json:"action" gorm:"index"`
	TargetID  *uint       `json:"target_id,omitempty"`
	Metadata  string      `json:"metadata"` // JSON blob
}
