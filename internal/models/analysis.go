package models

import "time"

// QuestionResponse captures per-question exam results.
type QuestionResponse struct {
	QuestionNo     int `json:"questionNo"`
	CorrectCount   int `json:"correctCount"`
	TotalExaminees int `json:"totalExaminees"`
}

// ItemAnalysis is an append-only exam item-analysis report. Responses are
// stored encoded in the database and decoded at the repository boundary.
type ItemAnalysis struct {
	ID             string             `db:"-" json:"id"`
	GradeLevel     int                `db:"grade_level" json:"gradeLevel"`
	Specialization string             `db:"specialization" json:"specialization"`
	Quarter        int                `db:"quarter" json:"quarter"`
	TotalQuestions int                `db:"total_questions" json:"totalQuestions"`
	Responses      []QuestionResponse `db:"-" json:"responses"`
	CreatedAt      time.Time          `db:"created_at" json:"createdAt"`
}
