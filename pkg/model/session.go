package model

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	EvaluationStatusNone       EvaluationStatus = "none"
	EvaluationStatusPending    EvaluationStatus = "pending"
	EvaluationStatusProcessing EvaluationStatus = "processing"
	EvaluationStatusEvaluated  EvaluationStatus = "evaluated"
	EvaluationStatusFailed     EvaluationStatus = "failed"
)

type Session struct {
	SessionID        uuid.UUID        `json:"session_id" db:"session_id"`
	InvitationID     uuid.UUID        `json:"invitation_id" db:"invitation_id"`
	StartTime        time.Time        `json:"start_time" db:"start_time"`
	CompletedAt      *time.Time       `json:"completed_at" db:"completed_at"`
	EvaluatedAt      *time.Time       `json:"evaluated_at" db:"evaluated_at"`
	Summary          *string          `json:"summary" db:"summary"`
	FullReport       *FullReport      `json:"full_report" db:"full_report"`
	Score            *float64         `json:"score" db:"score"`
	EvaluationStatus EvaluationStatus `json:"evaluation_status" db:"evaluation_status"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// FullReport is the structured evaluation persisted alongside the summary.
// Keys are fixed: downstream consumers render them directly.
type FullReport struct {
	KnowledgeLevel   string   `json:"knowledge_level"`
	Communication    string   `json:"communication"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	GrowthPotential  string   `json:"growth_potential"`
}

type StartSessionReq struct {
	InvitationID uuid.UUID `json:"invitation_id" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
}

type FinishSessionReq struct {
	Summary    string     `json:"summary" binding:"required"`
	FullReport FullReport `json:"full_report" binding:"required"`
	Score      *float64   `json:"score" binding:"required"`
}

type SessionSummary struct {
	Session Session              `json:"session"`
	Answers []AnswerWithQuestion `json:"answers"`
}

// CompletedSession is the flattened reporting row for the completed list.
type CompletedSession struct {
	SessionID     uuid.UUID         `json:"session_id"`
	CandidateName string            `json:"candidate_name"`
	Category      string            `json:"category"`
	InterviewType string            `json:"interview_type"`
	Score         *float64          `json:"score"`
	StartTime     time.Time         `json:"start_time"`
	CompletedAt   *time.Time        `json:"completed_at"`
	Summary       *string           `json:"summary"`
	FullReport    *FullReport       `json:"full_report"`
	Answers       []CompletedAnswer `json:"answers"`
}

type CompletedAnswer struct {
	Question   string `json:"question"`
	Transcript string `json:"transcript"`
}

type ListCompletedQuery struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}
