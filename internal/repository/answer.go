package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/jackc/pgx/v5"
)

// CreateAnswer stores one candidate response. The session must exist; the
// foreign key surfaces a missing session as an insert error.
func (r *Repository) CreateAnswer(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	const q = `
INSERT INTO answers (answer_id, session_id, question_id, transcript, audio_url, analysis, score)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING answer_id, session_id, question_id, transcript, audio_url, analysis, score, created_at
`
	var a model.Answer
	row := r.db.QueryRow(ctx, q,
		uuid.New(), answer.SessionID, answer.QuestionID,
		answer.Transcript, answer.AudioURL, answer.Analysis, answer.Score,
	)
	err := row.Scan(
		&a.AnswerID, &a.SessionID, &a.QuestionID, &a.Transcript,
		&a.AudioURL, &a.Analysis, &a.Score, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	return &a, nil
}

// UpdateAnswerTranscript corrects a transcript before evaluation. The answer
// must belong to the session; pgx.ErrNoRows otherwise.
func (r *Repository) UpdateAnswerTranscript(ctx context.Context, sessionID, answerID uuid.UUID, transcript string) (*model.Answer, error) {
	const q = `
UPDATE answers SET transcript = $1
WHERE answer_id = $2 AND session_id = $3
RETURNING answer_id, session_id, question_id, transcript, audio_url, analysis, score, created_at
`
	var a model.Answer
	row := r.db.QueryRow(ctx, q, transcript, answerID, sessionID)
	err := row.Scan(
		&a.AnswerID, &a.SessionID, &a.QuestionID, &a.Transcript,
		&a.AudioURL, &a.Analysis, &a.Score, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("update transcript: %w", err)
	}
	return &a, nil
}
