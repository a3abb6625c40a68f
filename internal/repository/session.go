package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
session_id, invitation_id, start_time, completed_at, evaluated_at,
summary, full_report, score, evaluation_status, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	var reportBytes []byte
	err := row.Scan(
		&s.SessionID, &s.InvitationID, &s.StartTime, &s.CompletedAt, &s.EvaluatedAt,
		&s.Summary, &reportBytes, &s.Score, &s.EvaluationStatus, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(reportBytes) > 0 {
		var report model.FullReport
		if err := json.Unmarshal(reportBytes, &report); err != nil {
			return nil, fmt.Errorf("unmarshal full report: %w", err)
		}
		s.FullReport = &report
	}
	return &s, nil
}

// StartSession creates the session for an invitation, or returns the
// existing one. One invitation owns at most one session; the unique
// constraint on invitation_id makes duplicate starts race-safe. The second
// return value reports whether a new session was created.
func (r *Repository) StartSession(ctx context.Context, invitationID uuid.UUID, startTime time.Time) (*model.Session, bool, error) {
	q := `
INSERT INTO sessions (session_id, invitation_id, start_time, evaluation_status)
VALUES ($1, $2, $3, $4)
ON CONFLICT (invitation_id) DO NOTHING
RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRow(ctx, q,
		uuid.New(), invitationID, startTime, model.EvaluationStatusNone,
	))
	if err == nil {
		return session, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert session: %w", err)
	}

	q = `SELECT ` + sessionColumns + ` FROM sessions WHERE invitation_id = $1`
	session, err = scanSession(r.db.QueryRow(ctx, q, invitationID))
	if err != nil {
		return nil, false, fmt.Errorf("select session by invitation: %w", err)
	}
	return session, false, nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = $1`
	session, err := scanSession(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession applies a partial update and returns the updated row.
func (r *Repository) UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Session, error) {
	validCols := map[string]bool{
		"completed_at": true, "evaluated_at": true, "summary": true,
		"full_report": true, "score": true, "evaluation_status": true,
	}

	query := "UPDATE sessions SET updated_at = now()"
	args := []interface{}{}

	for col, val := range updates {
		if !validCols[col] {
			continue
		}

		if col == "full_report" {
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("marshal full report: %w", err)
			}
			query += fmt.Sprintf(", full_report = $%d::jsonb", len(args)+1)
			args = append(args, b)
			continue
		}

		query += fmt.Sprintf(", %s = $%d", col, len(args)+1)
		args = append(args, val)
	}

	query += fmt.Sprintf(" WHERE session_id = $%d RETURNING ", len(args)+1) + sessionColumns
	args = append(args, id)

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// ListSessionAnswers returns the session's answers joined with question text,
// ordered by the question's position in the invitation's category.
func (r *Repository) ListSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerWithQuestion, error) {
	const q = `
SELECT a.answer_id, a.question_id, q.content, COALESCE(qic.seq, 0), a.transcript
FROM answers a
JOIN questions q ON q.question_id = a.question_id
JOIN sessions s ON s.session_id = a.session_id
JOIN invitations i ON i.invitation_id = s.invitation_id
LEFT JOIN question_in_category qic
  ON qic.question_id = a.question_id AND qic.category_id = i.category_id
WHERE a.session_id = $1
ORDER BY COALESCE(qic.seq, 0) ASC, a.created_at ASC
`
	rows, err := r.db.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session answers: %w", err)
	}
	defer rows.Close()

	var out []model.AnswerWithQuestion
	for rows.Next() {
		var a model.AnswerWithQuestion
		if err := rows.Scan(&a.AnswerID, &a.QuestionID, &a.Question, &a.Seq, &a.Transcript); err != nil {
			return nil, fmt.Errorf("scan session answer: %w", err)
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// GetSessionCategory resolves the category of the invitation owning the
// session. Returns pgx.ErrNoRows when the session does not exist.
func (r *Repository) GetSessionCategory(ctx context.Context, sessionID uuid.UUID) (*model.Category, error) {
	const q = `
SELECT c.category_id, c.name, c.interview_type_id, c.created_at
FROM categories c
JOIN invitations i ON i.category_id = c.category_id
JOIN sessions s ON s.invitation_id = i.invitation_id
WHERE s.session_id = $1
`
	var c model.Category
	row := r.db.QueryRow(ctx, q, sessionID)
	if err := row.Scan(&c.CategoryID, &c.Name, &c.InterviewTypeID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompletedSessions returns flattened reporting rows for sessions with a
// completion time inside the optional date window.
func (r *Repository) ListCompletedSessions(ctx context.Context, startDate, endDate *time.Time) ([]model.CompletedSession, error) {
	q := `
SELECT s.session_id, i.candidate_name, c.name, it.name,
       s.score, s.start_time, s.completed_at, s.summary, s.full_report
FROM sessions s
JOIN invitations i ON i.invitation_id = s.invitation_id
JOIN categories c ON c.category_id = i.category_id
JOIN interview_types it ON it.interview_type_id = c.interview_type_id
WHERE s.completed_at IS NOT NULL
`
	args := []interface{}{}
	if startDate != nil {
		args = append(args, *startDate)
		q += fmt.Sprintf(" AND s.completed_at >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		q += fmt.Sprintf(" AND s.completed_at <= $%d", len(args))
	}
	q += " ORDER BY s.completed_at ASC"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query completed sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.CompletedSession{}
	ids := []uuid.UUID{}
	for rows.Next() {
		var cs model.CompletedSession
		var reportBytes []byte
		if err := rows.Scan(
			&cs.SessionID, &cs.CandidateName, &cs.Category, &cs.InterviewType,
			&cs.Score, &cs.StartTime, &cs.CompletedAt, &cs.Summary, &reportBytes,
		); err != nil {
			return nil, fmt.Errorf("scan completed session: %w", err)
		}
		if len(reportBytes) > 0 {
			var report model.FullReport
			if err := json.Unmarshal(reportBytes, &report); err != nil {
				return nil, fmt.Errorf("unmarshal full report: %w", err)
			}
			cs.FullReport = &report
		}
		cs.Answers = []model.CompletedAnswer{}
		sessions = append(sessions, cs)
		ids = append(ids, cs.SessionID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	const qa = `
SELECT a.session_id, q.content, a.transcript
FROM answers a
JOIN questions q ON q.question_id = a.question_id
WHERE a.session_id = ANY($1)
ORDER BY a.created_at ASC
`
	answerRows, err := r.db.Query(ctx, qa, ids)
	if err != nil {
		return nil, fmt.Errorf("query completed session answers: %w", err)
	}
	defer answerRows.Close()

	bySession := make(map[uuid.UUID][]model.CompletedAnswer, len(sessions))
	for answerRows.Next() {
		var sid uuid.UUID
		var ca model.CompletedAnswer
		if err := answerRows.Scan(&sid, &ca.Question, &ca.Transcript); err != nil {
			return nil, fmt.Errorf("scan completed answer: %w", err)
		}
		bySession[sid] = append(bySession[sid], ca)
	}
	if answerRows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", answerRows.Err())
	}

	for idx := range sessions {
		if answers, ok := bySession[sessions[idx].SessionID]; ok {
			sessions[idx].Answers = answers
		}
	}
	return sessions, nil
}
