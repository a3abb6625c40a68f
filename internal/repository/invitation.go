package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
)

func (r *Repository) CreateInvitation(ctx context.Context, inv *model.Invitation) (*model.Invitation, error) {
	const q = `
INSERT INTO invitations (invitation_id, candidate_name, candidate_email, category_id)
VALUES ($1, $2, $3, $4)
RETURNING invitation_id, candidate_name, candidate_email, category_id, is_completed, created_at
`
	var out model.Invitation
	row := r.db.QueryRow(ctx, q, uuid.New(), inv.CandidateName, inv.CandidateEmail, inv.CategoryID)
	err := row.Scan(
		&out.InvitationID, &out.CandidateName, &out.CandidateEmail,
		&out.CategoryID, &out.IsCompleted, &out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return &out, nil
}

// GetInvitationDetail loads the invitation with its category and the
// category's ordered question set. Returns pgx.ErrNoRows when the invitation
// does not exist.
func (r *Repository) GetInvitationDetail(ctx context.Context, id uuid.UUID) (*model.InvitationDetail, error) {
	const q = `
SELECT i.invitation_id, i.candidate_name, i.candidate_email, i.category_id, i.is_completed, i.created_at,
       c.category_id, c.name, c.interview_type_id, c.created_at
FROM invitations i
JOIN categories c ON c.category_id = i.category_id
WHERE i.invitation_id = $1
`
	var detail model.InvitationDetail
	row := r.db.QueryRow(ctx, q, id)
	err := row.Scan(
		&detail.Invitation.InvitationID, &detail.Invitation.CandidateName,
		&detail.Invitation.CandidateEmail, &detail.Invitation.CategoryID,
		&detail.Invitation.IsCompleted, &detail.Invitation.CreatedAt,
		&detail.Category.CategoryID, &detail.Category.Name,
		&detail.Category.InterviewTypeID, &detail.Category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	const qq = `
SELECT q.question_id, q.content, q.technologies, qic.seq
FROM question_in_category qic
JOIN questions q ON q.question_id = qic.question_id
WHERE qic.category_id = $1
ORDER BY qic.seq ASC
`
	rows, err := r.db.Query(ctx, qq, detail.Category.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("query category questions: %w", err)
	}
	defer rows.Close()

	detail.Questions = []model.Question{}
	for rows.Next() {
		var question model.Question
		if err := rows.Scan(&question.QuestionID, &question.Content, &question.Technologies, &question.Seq); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		detail.Questions = append(detail.Questions, question)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return &detail, nil
}
