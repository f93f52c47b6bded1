package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
	"prof_match/internal/domain/repository"
	"prof_match/internal/platform/database"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// JobQueue hands job ids to the import worker.
type JobQueue interface {
	Push(ctx context.Context, id string) error
}

type ImportJobService struct {
	jobRepo       repository.ImportJobRepository
	referenceRepo repository.ReferenceRepository
	references    *ReferenceService
	queue         JobQueue
	tx            database.Transactor
}

func NewImportJobService(
	jobRepo repository.ImportJobRepository,
	referenceRepo repository.ReferenceRepository,
	references *ReferenceService,
	queue JobQueue,
	tx database.Transactor,
) *ImportJobService {
	return &ImportJobService{
		jobRepo:       jobRepo,
		referenceRepo: referenceRepo,
		references:    references,
		queue:         queue,
		tx:            tx,
	}
}

// EnqueueImport validates the catalog, records a job and pushes its id to the queue.
func (s *ImportJobService) EnqueueImport(ctx context.Context, catalog model.Catalog) (*model.ImportJob, error) {
	if err := common.ValidateStruct(catalog); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(catalog)
	if err != nil {
		return nil, common.Errorf("failed to marshal catalog: %w", err)
	}

	job := &model.ImportJob{
		ID:      uuid.NewString(),
		Status:  model.ImportStatusQueued,
		Payload: payload,
	}

	// The row must be committed before the id is pushed, or the worker may pop an id it cannot load.
	if err := s.jobRepo.CreateJob(ctx, nil, job); err != nil {
		return nil, common.Errorf("failed to create import job in DB: %w", err)
	}
	if err := s.queue.Push(ctx, job.ID); err != nil {
		msg := "enqueue failed: " + err.Error()
		if markErr := s.jobRepo.UpdateJobStatus(context.WithoutCancel(ctx), nil, job.ID, model.ImportStatusFailed, &msg); markErr != nil {
			log.Printf("ERROR: Failed to mark unqueued import job %s as failed: %v", job.ID, markErr)
		}
		return nil, common.Errorf("failed to push import job ID to queue: %w", err)
	}

	log.Printf("INFO: Import job %s enqueued (%d categories, %d questions, %d faculties, %d exams, %d requirements)",
		job.ID, len(catalog.Categories), len(catalog.Questions), len(catalog.Faculties), len(catalog.Exams), len(catalog.Requirements))
	return job, nil
}

func (s *ImportJobService) GetJob(ctx context.Context, jobID string) (*model.ImportJob, error) {
	return s.jobRepo.GetJobByID(ctx, jobID)
}

// ProcessJob applies the job's catalog in one transaction and records the outcome on the job.
// Completed jobs are skipped, so a redelivered id is harmless.
func (s *ImportJobService) ProcessJob(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return common.Errorf("failed to load import job %s: %w", jobID, err)
	}
	if job.Status == model.ImportStatusCompleted {
		log.Printf("INFO: Import job %s already completed, skipping", jobID)
		return nil
	}

	if err := s.jobRepo.IncrementJobAttempts(ctx, nil, jobID); err != nil {
		return err
	}
	if err := s.jobRepo.UpdateJobStatus(ctx, nil, jobID, model.ImportStatusProcessing, nil); err != nil {
		return err
	}

	// Outcome writes must land even when the worker is shutting down.
	statusCtx := context.WithoutCancel(ctx)

	applyErr := s.apply(ctx, job.Payload)
	if applyErr != nil {
		if errors.Is(applyErr, context.Canceled) || errors.Is(applyErr, context.DeadlineExceeded) {
			if err := s.jobRepo.UpdateJobStatus(statusCtx, nil, jobID, model.ImportStatusQueued, nil); err != nil {
				log.Printf("ERROR: Failed to reset interrupted import job %s: %v", jobID, err)
			}
			return common.Errorf("import job %s interrupted: %w", jobID, applyErr)
		}
		msg := applyErr.Error()
		if err := s.jobRepo.UpdateJobStatus(statusCtx, nil, jobID, model.ImportStatusFailed, &msg); err != nil {
			log.Printf("ERROR: Failed to mark import job %s as failed: %v", jobID, err)
		}
		return common.Errorf("import job %s failed: %w", jobID, applyErr)
	}

	if err := s.jobRepo.UpdateJobStatus(statusCtx, nil, jobID, model.ImportStatusCompleted, nil); err != nil {
		return err
	}
	s.references.Invalidate(statusCtx)
	log.Printf("INFO: Import job %s completed", jobID)
	return nil
}

func (s *ImportJobService) apply(ctx context.Context, payload json.RawMessage) error {
	var catalog model.Catalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		return common.Errorf("failed to decode catalog: %w", err)
	}

	return s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		for _, c := range catalog.Categories {
			if err := s.referenceRepo.UpsertCategory(ctx, tx, &model.Category{ID: c.ID, Name: c.Name}); err != nil {
				return err
			}
		}
		for _, q := range catalog.Questions {
			if err := s.referenceRepo.UpsertQuestion(ctx, tx, &model.Question{ID: q.ID, Text: q.Text}); err != nil {
				return err
			}
			for _, a := range q.Answers {
				if err := s.referenceRepo.UpsertAnswer(ctx, tx, &model.Answer{ID: a.ID, QuestionID: q.ID, Text: a.Text}); err != nil {
					return err
				}
				for _, w := range a.Weights {
					weight := model.AnswerWeight{AnswerID: a.ID, CategoryID: w.CategoryID, Score: w.Score}
					if err := s.referenceRepo.UpsertAnswerWeight(ctx, tx, weight); err != nil {
						return err
					}
				}
			}
		}
		for _, f := range catalog.Faculties {
			faculty := &model.Faculty{ID: f.ID, Name: f.Name, URL: f.URL, CategoryID: f.CategoryID}
			if err := s.referenceRepo.UpsertFaculty(ctx, tx, faculty); err != nil {
				return err
			}
		}
		for _, e := range catalog.Exams {
			exam := &model.Exam{ID: e.ID, Name: e.Name, Code: ExamCode(e)}
			if err := s.referenceRepo.UpsertExam(ctx, tx, exam); err != nil {
				return err
			}
		}
		for _, r := range catalog.Requirements {
			req := model.FacultyExamRequirement{FacultyID: r.FacultyID, ExamID: r.ExamID, MinScore: r.MinScore}
			if err := s.referenceRepo.UpsertRequirement(ctx, tx, req); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExamCode returns the exam's code, deriving one from its name when none was given.
func ExamCode(e model.CatalogExam) string {
	if e.Code != "" {
		return e.Code
	}
	code := slug.Make(e.Name)
	if code == "" {
		code = fmt.Sprintf("exam-%.8s", e.ID)
	}
	return code
}
