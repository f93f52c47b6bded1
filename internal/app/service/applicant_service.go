package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"prof_match/internal/app/matching"
	"prof_match/internal/common"
	"prof_match/internal/domain/model"
	"prof_match/internal/domain/repository"
	"prof_match/internal/platform/database"
	"prof_match/internal/platform/lock"

	"github.com/google/uuid"
)

type ApplicantService struct {
	applicantRepo repository.ApplicantRepository
	referenceRepo repository.ReferenceRepository
	assembler     *matching.Assembler
	matcher       *matching.Matcher
	locker        lock.Locker
	tx            database.Transactor
	lockTTL       time.Duration
}

func NewApplicantService(
	applicantRepo repository.ApplicantRepository,
	referenceRepo repository.ReferenceRepository,
	locker lock.Locker,
	tx database.Transactor,
	lockTTL time.Duration,
) *ApplicantService {
	return &ApplicantService{
		applicantRepo: applicantRepo,
		referenceRepo: referenceRepo,
		assembler:     matching.NewAssembler(referenceRepo),
		matcher:       matching.NewMatcher(referenceRepo),
		locker:        locker,
		tx:            tx,
		lockTTL:       lockTTL,
	}
}

type ExamScoreInput struct {
	ExamID string `json:"exam_id" validate:"required,uuid"`
	Score  int    `json:"score" validate:"gte=0,lte=100"`
}

type RegisterApplicantRequest struct {
	Surname     string           `json:"surname" validate:"required,max=30"`
	Name        string           `json:"name" validate:"required,max=30"`
	Patronymic  *string          `json:"patronymic,omitempty" validate:"omitempty,max=30"`
	PhoneNumber string           `json:"phone_number" validate:"required,phone"`
	City        *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	Exams       []ExamScoreInput `json:"exams,omitempty" validate:"dive"`
}

// RegisterOrUpdate creates the applicant owning req.PhoneNumber or overwrites the personal
// fields of the existing one. The applicant id never changes for a known phone number.
// Exams sent along are upserted in the same transaction.
func (s *ApplicantService) RegisterOrUpdate(ctx context.Context, req RegisterApplicantRequest) (*model.Applicant, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkExams(ctx, req.Exams); err != nil {
		return nil, err
	}

	applicant := &model.Applicant{
		ID:          uuid.NewString(), // Replaced by the stored id when the phone is already known
		Surname:     req.Surname,
		Name:        req.Name,
		Patronymic:  req.Patronymic,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
	}

	err := lock.WithLock(ctx, s.locker, lock.PhoneKey(req.PhoneNumber), s.lockTTL, func() error {
		return s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
			if err := s.applicantRepo.UpsertApplicant(ctx, tx, applicant); err != nil {
				return common.Errorf("failed to upsert applicant: %w", err)
			}
			for _, e := range req.Exams {
				score := model.ApplicantExamScore{ApplicantID: applicant.ID, ExamID: e.ExamID, Score: e.Score}
				if err := s.applicantRepo.UpsertExamScore(ctx, tx, score); err != nil {
					return common.Errorf("failed to save exam %s: %w", e.ExamID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("INFO: Applicant %s registered (%d exam score(s))", applicant.ID, len(req.Exams))
	return applicant, nil
}

type SubmitExamScoresRequest struct {
	Exams []ExamScoreInput `json:"exams" validate:"min=1,dive"`
}

// SubmitExamScores upserts the given scores and returns the applicant's eligibility for every faculty.
func (s *ApplicantService) SubmitExamScores(ctx context.Context, applicantID string, req SubmitExamScoresRequest) ([]model.Eligibility, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.applicantRepo.FindApplicantByID(ctx, applicantID); err != nil {
		return nil, err
	}
	if err := s.checkExams(ctx, req.Exams); err != nil {
		return nil, err
	}

	err := lock.WithLock(ctx, s.locker, lock.ApplicantKey(applicantID), s.lockTTL, func() error {
		return s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
			for _, e := range req.Exams {
				score := model.ApplicantExamScore{ApplicantID: applicantID, ExamID: e.ExamID, Score: e.Score}
				if err := s.applicantRepo.UpsertExamScore(ctx, tx, score); err != nil {
					return common.Errorf("failed to save exam %s: %w", e.ExamID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	scores, err := s.applicantRepo.ListExamScores(ctx, applicantID)
	if err != nil {
		return nil, common.Errorf("failed to load exam scores: %w", err)
	}
	return s.eligibilityForAll(ctx, passedExams(scores))
}

// GetProfile returns the stored questionnaire result, exam scores and per-faculty eligibility.
func (s *ApplicantService) GetProfile(ctx context.Context, applicantID string) (*model.ApplicantProfile, error) {
	applicant, err := s.applicantRepo.FindApplicantByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, applicant)
}

type phoneLookup struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
}

func (s *ApplicantService) GetProfileByPhone(ctx context.Context, phone string) (*model.ApplicantProfile, error) {
	if err := common.ValidateStruct(phoneLookup{PhoneNumber: phone}); err != nil {
		return nil, err
	}
	applicant, err := s.applicantRepo.FindApplicantByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, applicant)
}

// MatchEligibility evaluates the applicant's current exam scores against one faculty.
func (s *ApplicantService) MatchEligibility(ctx context.Context, applicantID, facultyID string) (*model.Eligibility, error) {
	if _, err := s.applicantRepo.FindApplicantByID(ctx, applicantID); err != nil {
		return nil, err
	}
	scores, err := s.applicantRepo.ListExamScores(ctx, applicantID)
	if err != nil {
		return nil, common.Errorf("failed to load exam scores: %w", err)
	}
	return s.matcher.MatchEligibility(ctx, facultyID, passedExams(scores))
}

func (s *ApplicantService) buildProfile(ctx context.Context, applicant *model.Applicant) (*model.ApplicantProfile, error) {
	results, err := s.applicantRepo.ListCategoryResults(ctx, applicant.ID)
	if err != nil {
		return nil, common.Errorf("failed to load category results: %w", err)
	}
	compliance := make(map[string]int, len(results))
	for _, r := range results {
		compliance[r.CategoryID] = r.Compliance
	}
	profile, err := s.assembler.AssembleProfile(ctx, *applicant, compliance)
	if err != nil {
		return nil, err
	}

	scores, err := s.applicantRepo.ListExamScores(ctx, applicant.ID)
	if err != nil {
		return nil, common.Errorf("failed to load exam scores: %w", err)
	}
	eligibility, err := s.eligibilityForAll(ctx, passedExams(scores))
	if err != nil {
		return nil, err
	}

	return &model.ApplicantProfile{
		Applicant:   profile.Applicant,
		Categories:  profile.Categories,
		Exams:       scores,
		Eligibility: eligibility,
	}, nil
}

// eligibilityForAll evaluates every faculty with two reads instead of one per faculty.
func (s *ApplicantService) eligibilityForAll(ctx context.Context, passed map[string]int) ([]model.Eligibility, error) {
	faculties, err := s.referenceRepo.ListFaculties(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list faculties: %w", err)
	}
	reqs, err := s.referenceRepo.ListRequirements(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list requirements: %w", err)
	}
	byFaculty := make(map[string][]model.FacultyExamRequirement, len(faculties))
	for _, r := range reqs {
		byFaculty[r.FacultyID] = append(byFaculty[r.FacultyID], r)
	}

	out := make([]model.Eligibility, 0, len(faculties))
	for _, f := range faculties {
		out = append(out, matching.Evaluate(f, byFaculty[f.ID], passed))
	}
	return out, nil
}

// checkExams reports the first exam id that is not in the reference data.
func (s *ApplicantService) checkExams(ctx context.Context, exams []ExamScoreInput) error {
	if len(exams) == 0 {
		return nil
	}
	ids := make([]string, 0, len(exams))
	for _, e := range exams {
		ids = append(ids, e.ExamID)
	}
	known, err := s.referenceRepo.FindExamsByIDs(ctx, ids)
	if err != nil {
		return common.Errorf("failed to look up exams: %w", err)
	}
	found := make(map[string]bool, len(known))
	for _, e := range known {
		found[e.ID] = true
	}
	for i, e := range exams {
		if !found[e.ExamID] {
			return common.NewValidation(fmt.Sprintf("exams[%d].exam_id", i), "unknown exam")
		}
	}
	return nil
}

func passedExams(scores []model.ApplicantExamScore) map[string]int {
	passed := make(map[string]int, len(scores))
	for _, s := range scores {
		passed[s.ExamID] = s.Score
	}
	return passed
}
