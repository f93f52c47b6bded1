package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

const (
	qOutdoors = "0a000000-0000-4000-8000-000000000001"
	qMachines = "0a000000-0000-4000-8000-000000000002"

	aOutdoorsYes  = "0b000000-0000-4000-8000-000000000001"
	aOutdoorsSome = "0b000000-0000-4000-8000-000000000002"
	aMachinesYes  = "0b000000-0000-4000-8000-000000000003"
	aMachinesNo   = "0b000000-0000-4000-8000-000000000004"

	cNature = "0c000000-0000-4000-8000-000000000001"
	cTech   = "0c000000-0000-4000-8000-000000000002"

	fAgronomy = "0d000000-0000-4000-8000-000000000001"
	fMech     = "0d000000-0000-4000-8000-000000000002"

	eMath    = "0e000000-0000-4000-8000-000000000001"
	eBiology = "0e000000-0000-4000-8000-000000000002"

	unknownID = "0f000000-0000-4000-8000-000000000009"
)

var errInjected = errors.New("injected failure")

// fakeStore implements the applicant, reference and import job repositories in memory.
type fakeStore struct {
	mu sync.Mutex

	applicants map[string]model.Applicant
	results    map[string][]model.ApplicantCategoryResult
	examScores map[string]map[string]int

	questions    map[string]model.Question
	answers      map[string]model.Answer
	weights      map[[2]string]int
	categories   map[string]model.Category
	faculties    map[string]model.Faculty
	exams        map[string]model.Exam
	requirements map[[2]string]int

	jobs map[string]model.ImportJob

	writes         int
	failReplace    error // returned by ReplaceCategoryResults after it deleted the old rows
	failUpsertExam error

	onUpsertCategory func(ctx context.Context) error
	onReplace        func(applicantID string)
}

type fakeSnapshot struct {
	applicants   map[string]model.Applicant
	results      map[string][]model.ApplicantCategoryResult
	examScores   map[string]map[string]int
	questions    map[string]model.Question
	answers      map[string]model.Answer
	weights      map[[2]string]int
	categories   map[string]model.Category
	faculties    map[string]model.Faculty
	exams        map[string]model.Exam
	requirements map[[2]string]int
	jobs         map[string]model.ImportJob
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) snapshot() fakeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	scores := make(map[string]map[string]int, len(f.examScores))
	for k, v := range f.examScores {
		scores[k] = copyMap(v)
	}
	results := make(map[string][]model.ApplicantCategoryResult, len(f.results))
	for k, v := range f.results {
		results[k] = append([]model.ApplicantCategoryResult(nil), v...)
	}
	return fakeSnapshot{
		applicants:   copyMap(f.applicants),
		results:      results,
		examScores:   scores,
		questions:    copyMap(f.questions),
		answers:      copyMap(f.answers),
		weights:      copyMap(f.weights),
		categories:   copyMap(f.categories),
		faculties:    copyMap(f.faculties),
		exams:        copyMap(f.exams),
		requirements: copyMap(f.requirements),
		jobs:         copyMap(f.jobs),
	}
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applicants, f.results, f.examScores = s.applicants, s.results, s.examScores
	f.questions, f.answers, f.weights = s.questions, s.answers, s.weights
	f.categories, f.faculties, f.exams, f.requirements = s.categories, s.faculties, s.exams, s.requirements
	f.jobs = s.jobs
}

// fakeTransactor restores the store when fn fails, standing in for a rollback.
// Like database/sql, a transaction whose context is done by the end rolls back.
type fakeTransactor struct {
	store   *fakeStore
	mu      sync.Mutex // one transaction at a time
	commits int
	open    atomic.Bool
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t.open.Store(true)
	defer t.open.Store(false)
	before := t.store.snapshot()
	err := fn(nil)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		t.store.restore(before)
		return err
	}
	t.commits++
	return nil
}

type fakeQueue struct {
	mu     sync.Mutex
	ids    []string
	fail   error
	onPush func(id string) // runs after the id is queued, like a worker popping it at once
}

func (q *fakeQueue) Push(ctx context.Context, id string) error {
	q.mu.Lock()
	if q.fail != nil {
		q.mu.Unlock()
		return q.fail
	}
	q.ids = append(q.ids, id)
	onPush := q.onPush
	q.mu.Unlock()
	if onPush != nil {
		onPush(id)
	}
	return nil
}

func newEmptyStore() *fakeStore {
	return &fakeStore{
		applicants:   map[string]model.Applicant{},
		results:      map[string][]model.ApplicantCategoryResult{},
		examScores:   map[string]map[string]int{},
		questions:    map[string]model.Question{},
		answers:      map[string]model.Answer{},
		weights:      map[[2]string]int{},
		categories:   map[string]model.Category{},
		faculties:    map[string]model.Faculty{},
		exams:        map[string]model.Exam{},
		requirements: map[[2]string]int{},
		jobs:         map[string]model.ImportJob{},
	}
}

// newSeededStore: "outdoors yes" gives 10 to Nature, "outdoors sometimes" 5 to Tech,
// "machines yes" 3 to Nature and 4 to Tech, "machines no" nothing.
// Agronomy (Nature) requires math >= 60, Mechanization (Tech) has no requirements.
func newSeededStore() *fakeStore {
	f := newEmptyStore()
	f.questions[qOutdoors] = model.Question{ID: qOutdoors, Text: "Do you like working outdoors?"}
	f.questions[qMachines] = model.Question{ID: qMachines, Text: "Do you like machines?"}
	f.answers[aOutdoorsYes] = model.Answer{ID: aOutdoorsYes, QuestionID: qOutdoors, Text: "Yes"}
	f.answers[aOutdoorsSome] = model.Answer{ID: aOutdoorsSome, QuestionID: qOutdoors, Text: "Sometimes"}
	f.answers[aMachinesYes] = model.Answer{ID: aMachinesYes, QuestionID: qMachines, Text: "Yes"}
	f.answers[aMachinesNo] = model.Answer{ID: aMachinesNo, QuestionID: qMachines, Text: "No"}
	f.weights[[2]string{aOutdoorsYes, cNature}] = 10
	f.weights[[2]string{aOutdoorsSome, cTech}] = 5
	f.weights[[2]string{aMachinesYes, cNature}] = 3
	f.weights[[2]string{aMachinesYes, cTech}] = 4
	f.categories[cNature] = model.Category{ID: cNature, Name: "Human-Nature"}
	f.categories[cTech] = model.Category{ID: cTech, Name: "Human-Technology"}
	f.faculties[fAgronomy] = model.Faculty{ID: fAgronomy, Name: "Agronomy", URL: "https://example.edu/agro", CategoryID: cNature}
	f.faculties[fMech] = model.Faculty{ID: fMech, Name: "Mechanization", URL: "https://example.edu/mech", CategoryID: cTech}
	f.exams[eMath] = model.Exam{ID: eMath, Name: "Mathematics", Code: "math"}
	f.exams[eBiology] = model.Exam{ID: eBiology, Name: "Biology", Code: "biology"}
	f.requirements[[2]string{fAgronomy, eMath}] = 60
	return f
}

// ApplicantRepository

func (f *fakeStore) UpsertApplicant(ctx context.Context, tx *sql.Tx, a *model.Applicant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for id, existing := range f.applicants {
		if existing.PhoneNumber == a.PhoneNumber {
			a.ID = id
			a.CreatedAt = existing.CreatedAt
			f.applicants[id] = *a
			return nil
		}
	}
	f.applicants[a.ID] = *a
	return nil
}

func (f *fakeStore) FindApplicantByID(ctx context.Context, id string) (*model.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applicants[id]
	if !ok {
		return nil, common.NewNotFound("applicant", id)
	}
	return &a, nil
}

func (f *fakeStore) FindApplicantByPhone(ctx context.Context, phone string) (*model.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.applicants {
		if a.PhoneNumber == phone {
			a := a
			return &a, nil
		}
	}
	return nil, common.NewNotFound("applicant", phone)
}

func (f *fakeStore) ReplaceCategoryResults(ctx context.Context, tx *sql.Tx, applicantID string, results []model.ApplicantCategoryResult) error {
	if f.onReplace != nil {
		f.onReplace(applicantID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applicants[applicantID]; !ok {
		return common.NewNotFound("applicant", applicantID)
	}
	f.writes++
	delete(f.results, applicantID)
	if f.failReplace != nil {
		return f.failReplace
	}
	f.results[applicantID] = append([]model.ApplicantCategoryResult(nil), results...)
	return nil
}

func (f *fakeStore) ListCategoryResults(ctx context.Context, applicantID string) ([]model.ApplicantCategoryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ApplicantCategoryResult{}, f.results[applicantID]...), nil
}

func (f *fakeStore) UpsertExamScore(ctx context.Context, tx *sql.Tx, s model.ApplicantExamScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsertExam != nil {
		return f.failUpsertExam
	}
	f.writes++
	if f.examScores[s.ApplicantID] == nil {
		f.examScores[s.ApplicantID] = map[string]int{}
	}
	f.examScores[s.ApplicantID][s.ExamID] = s.Score
	return nil
}

func (f *fakeStore) ListExamScores(ctx context.Context, applicantID string) ([]model.ApplicantExamScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ApplicantExamScore{}
	for examID, score := range f.examScores[applicantID] {
		e := f.exams[examID]
		out = append(out, model.ApplicantExamScore{ApplicantID: applicantID, ExamID: examID, ExamName: e.Name, ExamCode: e.Code, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExamCode < out[j].ExamCode })
	return out, nil
}

// ReferenceRepository

func (f *fakeStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Question{}
	for _, q := range f.questions {
		q.Answers = []model.Answer{}
		for _, a := range f.answers {
			if a.QuestionID == q.ID {
				q.Answers = append(q.Answers, a)
			}
		}
		sort.Slice(q.Answers, func(i, j int) bool { return q.Answers[i].ID < q.Answers[j].ID })
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FindQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Question{}
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAnswersByIDs(ctx context.Context, ids []string) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Answer{}
	for _, id := range ids {
		if a, ok := f.answers[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAnswerWeights(ctx context.Context, answerIDs []string) ([]model.AnswerWeight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, id := range answerIDs {
		want[id] = true
	}
	out := []model.AnswerWeight{}
	for k, score := range f.weights {
		if want[k[0]] {
			out = append(out, model.AnswerWeight{AnswerID: k[0], CategoryID: k[1], Score: score})
		}
	}
	return out, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, common.NewNotFound("category", id)
	}
	return &c, nil
}

func (f *fakeStore) ListFaculties(ctx context.Context) ([]model.Faculty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Faculty{}
	for _, fac := range f.faculties {
		out = append(out, fac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) FindFaculty(ctx context.Context, id string) (*model.Faculty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fac, ok := f.faculties[id]
	if !ok {
		return nil, common.NewNotFound("faculty", id)
	}
	return &fac, nil
}

func (f *fakeStore) FindFacultiesByCategory(ctx context.Context, categoryID string) ([]model.Faculty, error) {
	all, _ := f.ListFaculties(ctx)
	out := []model.Faculty{}
	for _, fac := range all {
		if fac.CategoryID == categoryID {
			out = append(out, fac)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExams(ctx context.Context) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Exam{}
	for _, e := range f.exams {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeStore) FindExamsByIDs(ctx context.Context, ids []string) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Exam{}
	for _, id := range ids {
		if e, ok := f.exams[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindRequirements(ctx context.Context, facultyID string) ([]model.FacultyExamRequirement, error) {
	all, _ := f.ListRequirements(ctx)
	out := []model.FacultyExamRequirement{}
	for _, r := range all {
		if r.FacultyID == facultyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRequirements(ctx context.Context) ([]model.FacultyExamRequirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.FacultyExamRequirement{}
	for k, minScore := range f.requirements {
		out = append(out, model.FacultyExamRequirement{
			FacultyID:   k[0],
			FacultyName: f.faculties[k[0]].Name,
			ExamID:      k[1],
			ExamCode:    f.exams[k[1]].Code,
			ExamName:    f.exams[k[1]].Name,
			MinScore:    minScore,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FacultyName != out[j].FacultyName {
			return out[i].FacultyName < out[j].FacultyName
		}
		return out[i].ExamCode < out[j].ExamCode
	})
	return out, nil
}

func (f *fakeStore) UpsertCategory(ctx context.Context, tx *sql.Tx, c *model.Category) error {
	if f.onUpsertCategory != nil {
		if err := f.onUpsertCategory(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = model.Category{ID: c.ID, Name: c.Name}
	return nil
}

func (f *fakeStore) UpsertQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions[q.ID] = model.Question{ID: q.ID, Text: q.Text}
	return nil
}

func (f *fakeStore) UpsertAnswer(ctx context.Context, tx *sql.Tx, a *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[a.ID] = *a
	return nil
}

func (f *fakeStore) UpsertAnswerWeight(ctx context.Context, tx *sql.Tx, w model.AnswerWeight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[w.CategoryID]; !ok {
		return errors.New("answer_weights_category_id_fkey")
	}
	f.weights[[2]string{w.AnswerID, w.CategoryID}] = w.Score
	return nil
}

func (f *fakeStore) UpsertFaculty(ctx context.Context, tx *sql.Tx, fac *model.Faculty) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faculties[fac.ID] = *fac
	return nil
}

func (f *fakeStore) UpsertExam(ctx context.Context, tx *sql.Tx, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.exams {
		if id != e.ID && existing.Code == e.Code {
			return &common.ConflictError{Entity: "exam code", Key: e.Code}
		}
	}
	f.exams[e.ID] = *e
	return nil
}

func (f *fakeStore) UpsertRequirement(ctx context.Context, tx *sql.Tx, r model.FacultyExamRequirement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requirements[[2]string{r.FacultyID, r.ExamID}] = r.MinScore
	return nil
}

// ImportJobRepository

func (f *fakeStore) CreateJob(ctx context.Context, tx *sql.Tx, job *model.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeStore) GetJobByID(ctx context.Context, id string) (*model.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, common.NewNotFound("import job", id)
	}
	return &job, nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return common.NewNotFound("import job", jobID)
	}
	job.Status = status
	job.LastError = lastError
	f.jobs[jobID] = job
	return nil
}

func (f *fakeStore) IncrementJobAttempts(ctx context.Context, tx *sql.Tx, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	job.Attempts++
	f.jobs[jobID] = job
	return nil
}
