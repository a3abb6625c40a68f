package model

import (
	"time"

	"github.com/google/uuid"
)

// Reference data: read-only for the evaluation pipeline. Question order
// within a category comes from question_in_category.seq.

type InterviewType struct {
	InterviewTypeID uuid.UUID `json:"interview_type_id" db:"interview_type_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type Category struct {
	CategoryID      uuid.UUID `json:"category_id" db:"category_id"`
	Name            string    `json:"name" db:"name"`
	InterviewTypeID uuid.UUID `json:"interview_type_id" db:"interview_type_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type Question struct {
	QuestionID   uuid.UUID `json:"question_id" db:"question_id"`
	Content      string    `json:"content" db:"content"`
	Technologies string    `json:"technologies" db:"technologies"`
	Seq          int       `json:"seq" db:"seq"`
}
