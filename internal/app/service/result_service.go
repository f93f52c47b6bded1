package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"prof_match/internal/app/matching"
	"prof_match/internal/common"
	"prof_match/internal/domain/model"
	"prof_match/internal/domain/repository"
	"prof_match/internal/platform/database"
	"prof_match/internal/platform/lock"
)

// ResultService scores questionnaire submissions and stores the outcome.
type ResultService struct {
	applicantRepo repository.ApplicantRepository
	scorer        *matching.Scorer
	assembler     *matching.Assembler
	locker        lock.Locker
	tx            database.Transactor
	lockTTL       time.Duration
}

func NewResultService(
	applicantRepo repository.ApplicantRepository,
	referenceRepo repository.ReferenceRepository,
	locker lock.Locker,
	tx database.Transactor,
	lockTTL time.Duration,
) *ResultService {
	return &ResultService{
		applicantRepo: applicantRepo,
		scorer:        matching.NewScorer(referenceRepo),
		assembler:     matching.NewAssembler(referenceRepo),
		locker:        locker,
		tx:            tx,
		lockTTL:       lockTTL,
	}
}

type SubmitAnswersRequest struct {
	ApplicantID string                  `json:"applicant_id" validate:"required,uuid"`
	Answers     []model.AnswerSelection `json:"answers" validate:"min=1,dive"`
}

// SubmitAnswers scores the answers, assembles the ranked profile and replaces the
// applicant's stored category results with it. Nothing is written when scoring or
// assembly fails.
func (s *ResultService) SubmitAnswers(ctx context.Context, req SubmitAnswersRequest) (*model.Profile, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	applicant, err := s.applicantRepo.FindApplicantByID(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}

	scores, err := s.scorer.ScoreAnswers(ctx, req.Answers)
	if err != nil {
		return nil, err
	}
	profile, err := s.assembler.AssembleProfile(ctx, *applicant, scores)
	if err != nil {
		return nil, err
	}

	results := make([]model.ApplicantCategoryResult, 0, len(profile.Categories))
	for _, c := range profile.Categories {
		results = append(results, model.ApplicantCategoryResult{
			ApplicantID: applicant.ID,
			CategoryID:  c.CategoryID,
			Compliance:  c.Compliance,
		})
	}

	err = lock.WithLock(ctx, s.locker, lock.ApplicantKey(applicant.ID), s.lockTTL, func() error {
		return s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
			if err := s.applicantRepo.ReplaceCategoryResults(ctx, tx, applicant.ID, results); err != nil {
				return common.Errorf("failed to replace category results: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("INFO: Stored %d category result(s) for applicant %s", len(results), applicant.ID)
	return profile, nil
}
