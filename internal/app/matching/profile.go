package matching

import (
	"context"
	"fmt"
	"sort"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

type CategoryReader interface {
	FindCategory(ctx context.Context, id string) (*model.Category, error)
	FindFacultiesByCategory(ctx context.Context, categoryID string) ([]model.Faculty, error)
}

type Assembler struct {
	ref CategoryReader
}

func NewAssembler(ref CategoryReader) *Assembler {
	return &Assembler{ref: ref}
}

// AssembleProfile resolves every scored category and its faculties and ranks the result.
// A scored category that is missing, or that has no faculties, is broken reference data
// and fails with a NotFoundError.
func (a *Assembler) AssembleProfile(ctx context.Context, applicant model.Applicant, scores map[string]int) (*model.Profile, error) {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	categories := make([]model.CategoryProfile, 0, len(ids))
	for _, id := range ids {
		category, err := a.ref.FindCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("AssembleProfile: %w", err)
		}
		faculties, err := a.ref.FindFacultiesByCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("AssembleProfile: faculties of category %s: %w", id, err)
		}
		if len(faculties) == 0 {
			return nil, common.NewNotFound("faculty", "category "+id)
		}

		links := make([]model.FacultyLink, 0, len(faculties))
		for _, f := range faculties {
			links = append(links, model.FacultyLink{ID: f.ID, Name: f.Name, URL: f.URL})
		}
		categories = append(categories, model.CategoryProfile{
			CategoryID: category.ID,
			Name:       category.Name,
			Compliance: scores[id],
			Faculties:  links,
		})
	}

	RankCategories(categories)
	return &model.Profile{Applicant: applicant, Categories: categories}, nil
}

// RankCategories orders by compliance (highest first), then name, then id.
func RankCategories(categories []model.CategoryProfile) {
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Compliance != categories[j].Compliance {
			return categories[i].Compliance > categories[j].Compliance
		}
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].CategoryID < categories[j].CategoryID
	})
}
