package model

import (
	"time"

	"github.com/google/uuid"
)

type Invitation struct {
	InvitationID   uuid.UUID `json:"invitation_id" db:"invitation_id"`
	CandidateName  string    `json:"candidate_name" db:"candidate_name"`
	CandidateEmail string    `json:"candidate_email" db:"candidate_email"`
	CategoryID     uuid.UUID `json:"category_id" db:"category_id"`
	IsCompleted    bool      `json:"is_completed" db:"is_completed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// InvitationDetail is what a candidate loads before starting: the invitation
// plus its category and the ordered question set.
type InvitationDetail struct {
	Invitation Invitation `json:"invitation"`
	Category   Category   `json:"category"`
	Questions  []Question `json:"questions"`
}

type CreateInvitationReq struct {
	CandidateName  string    `json:"candidate_name" binding:"required"`
	CandidateEmail string    `json:"candidate_email" binding:"required,email"`
	CategoryID     uuid.UUID `json:"category_id" binding:"required"`
}
