package model

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question"`
	Answers []Answer `json:"answers"`
}

type Answer struct {
	ID         string `json:"id"`
	QuestionID string `json:"-"`
	Text       string `json:"text"`
}

// AnswerWeight is the number of points an answer contributes to a category when selected.
type AnswerWeight struct {
	AnswerID   string `json:"answer_id"`
	CategoryID string `json:"category_id"`
	Score      int    `json:"score"`
}

// AnswerSelection is the set of answers picked for one question in a submission.
type AnswerSelection struct {
	QuestionID string   `json:"question_id" validate:"required,uuid"`
	AnswerIDs  []string `json:"answer_ids" validate:"dive,required,uuid"`
}
