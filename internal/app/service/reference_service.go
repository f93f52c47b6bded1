package service

import (
	"context"
	"log"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
	"prof_match/internal/domain/repository"
	"prof_match/internal/platform/cache"
)

const (
	cacheKeyQuestions    = "questions"
	cacheKeyExams        = "exams"
	cacheKeyRequirements = "requirements"
	cacheKeyCategories   = "categories"
)

// ReferenceService lists reference data. An empty list is a valid result.
type ReferenceService struct {
	repo  repository.ReferenceRepository
	cache cache.Cache
}

func NewReferenceService(repo repository.ReferenceRepository, c cache.Cache) *ReferenceService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ReferenceService{repo: repo, cache: c}
}

func (s *ReferenceService) ListQuestions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	err := s.cache.Load(ctx, cacheKeyQuestions, &questions, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListQuestions(ctx)
	})
	if err != nil {
		return nil, common.Errorf("failed to list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

func (s *ReferenceService) ListExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	err := s.cache.Load(ctx, cacheKeyExams, &exams, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListExams(ctx)
	})
	if err != nil {
		return nil, common.Errorf("failed to list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

func (s *ReferenceService) ListRequirements(ctx context.Context) ([]model.FacultyExamRequirement, error) {
	var reqs []model.FacultyExamRequirement
	err := s.cache.Load(ctx, cacheKeyRequirements, &reqs, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListRequirements(ctx)
	})
	if err != nil {
		return nil, common.Errorf("failed to list requirements: %w", err)
	}
	if reqs == nil {
		reqs = []model.FacultyExamRequirement{}
	}
	return reqs, nil
}

// ListCategories returns every category with its faculties nested.
func (s *ReferenceService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.cache.Load(ctx, cacheKeyCategories, &categories, func(ctx context.Context) (interface{}, error) {
		cats, err := s.repo.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		faculties, err := s.repo.ListFaculties(ctx)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(cats))
		for i := range cats {
			index[cats[i].ID] = i
			cats[i].Faculties = []model.Faculty{}
		}
		for _, f := range faculties {
			if i, ok := index[f.CategoryID]; ok {
				cats[i].Faculties = append(cats[i].Faculties, f)
			}
		}
		return cats, nil
	})
	if err != nil {
		return nil, common.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	for i := range categories {
		if categories[i].Faculties == nil {
			categories[i].Faculties = []model.Faculty{}
		}
	}
	return categories, nil
}

// Invalidate drops every cached list. Called after reference data changes.
func (s *ReferenceService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyQuestions, cacheKeyExams, cacheKeyRequirements, cacheKeyCategories); err != nil {
		log.Printf("WARN: Failed to invalidate reference cache: %v", err)
	}
}
