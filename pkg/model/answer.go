package model

import (
	"time"

	"github.com/google/uuid"
)

type Answer struct {
	AnswerID   uuid.UUID `json:"answer_id" db:"answer_id"`
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	QuestionID uuid.UUID `json:"question_id" db:"question_id"`
	Transcript string    `json:"transcript" db:"transcript"`
	AudioURL   *string   `json:"audio_url" db:"audio_url"`
	Analysis   *string   `json:"analysis" db:"analysis"`
	Score      *int      `json:"score" db:"score"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AnswerWithQuestion joins an answer with its question text and the
// question's position within the category. Transcript assembly depends on
// Seq ordering.
type AnswerWithQuestion struct {
	AnswerID   uuid.UUID `json:"answer_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Question   string    `json:"question"`
	Seq        int       `json:"seq"`
	Transcript string    `json:"transcript"`
}

type RecordAnswerReq struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Transcript string    `json:"transcript" binding:"required"`
	AudioURL   *string   `json:"audio_url"`
}

type UpdateTranscriptReq struct {
	Transcript string `json:"transcript" binding:"required"`
}
