// Package matching turns questionnaire answers into category compliance scores,
// resolves those scores into a ranked faculty profile and checks exam results
// against faculty requirements. Everything here reads reference data only.
package matching

import (
	"context"
	"fmt"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

// WeightReader is the slice of the reference store the Scorer needs.
type WeightReader interface {
	FindQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error)
	FindAnswersByIDs(ctx context.Context, ids []string) ([]model.Answer, error)
	FindAnswerWeights(ctx context.Context, answerIDs []string) ([]model.AnswerWeight, error)
}

type Scorer struct {
	ref WeightReader
}

func NewScorer(ref WeightReader) *Scorer {
	return &Scorer{ref: ref}
}

// ScoreAnswers folds the weights of every selected answer into a category_id -> compliance map.
//
// Unknown questions or answers fail the whole call with a NotFoundError, and an answer
// submitted under a question it does not belong to is a ValidationError. An answer id
// repeated within one request is counted once per occurrence. Categories that end up
// with no weight (or a zero total) are left out of the result.
func (s *Scorer) ScoreAnswers(ctx context.Context, selections []model.AnswerSelection) (map[string]int, error) {
	questionIDs := make([]string, 0, len(selections))
	answerIDs := []string{}
	seenQuestion := map[string]bool{}
	seenAnswer := map[string]bool{}
	for _, sel := range selections {
		if !seenQuestion[sel.QuestionID] {
			seenQuestion[sel.QuestionID] = true
			questionIDs = append(questionIDs, sel.QuestionID)
		}
		for _, id := range sel.AnswerIDs {
			if !seenAnswer[id] {
				seenAnswer[id] = true
				answerIDs = append(answerIDs, id)
			}
		}
	}

	questions, err := s.ref.FindQuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("ScoreAnswers: load questions: %w", err)
	}
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, id := range questionIDs {
		if !known[id] {
			return nil, common.NewNotFound("question", id)
		}
	}

	answers, err := s.ref.FindAnswersByIDs(ctx, answerIDs)
	if err != nil {
		return nil, fmt.Errorf("ScoreAnswers: load answers: %w", err)
	}
	owner := make(map[string]string, len(answers))
	for _, a := range answers {
		owner[a.ID] = a.QuestionID
	}
	for i, sel := range selections {
		for _, id := range sel.AnswerIDs {
			questionID, ok := owner[id]
			if !ok {
				return nil, common.NewNotFound("answer", id)
			}
			if questionID != sel.QuestionID {
				return nil, common.NewValidation(fmt.Sprintf("answers[%d].answer_ids", i), "answer does not belong to question")
			}
		}
	}

	weights, err := s.ref.FindAnswerWeights(ctx, answerIDs)
	if err != nil {
		return nil, fmt.Errorf("ScoreAnswers: load weights: %w", err)
	}
	byAnswer := make(map[string][]model.AnswerWeight, len(answerIDs))
	for _, w := range weights {
		byAnswer[w.AnswerID] = append(byAnswer[w.AnswerID], w)
	}

	scores := map[string]int{}
	for _, sel := range selections {
		for _, id := range sel.AnswerIDs {
			for _, w := range byAnswer[id] {
				scores[w.CategoryID] += w.Score
			}
		}
	}
	for categoryID, total := range scores {
		if total == 0 {
			delete(scores, categoryID)
		}
	}
	return scores, nil
}
