package models

import (
	"time"

	"gorm.io/datatypes"
)

// Response is one graded attempt by a student at a memocard. Rows are
// append-only: correctness and feedback are computed once at creation and the
// record is never mutated afterwards. A student may answer the same card any
// number of times, each attempt producing a new row.
type Response struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;index:idx_responses_student_memocard;index"`
	MemocardID uint   `json:"memocard_id" gorm:"not null;index:idx_responses_student_memocard"`

	Answer    datatypes.JSON `json:"answer" gorm:"type:jsonb;not null"`
	IsCorrect bool           `json:"is_correct" gorm:"not null"`
	Feedback  string         `json:"feedback" gorm:"type:text"`

	// Attempts is 1-indexed: prior responses by this student to this card + 1.
	Attempts         int  `json:"attempts" gorm:"not null;default:1"`
	TimeSpentSeconds *int `json:"time_spent_seconds,omitempty" gorm:"check:time_spent_seconds >= 0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}

// DimensionStats is one by_difficulty / by_subject bucket in a progress
// report. Total is the catalog count for the bucket; the aggregation itself
// leaves it at 0 and a separate catalog-count step fills it when a caller
// needs it.
type DimensionStats struct {
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// StudentProgress is derived from a student's full response history joined
// against the card catalog. It is never persisted.
type StudentProgress struct {
	TotalMemocards     int                        `json:"total_memocards"`
	AnsweredMemocards  int                        `json:"answered_memocards"`
	CorrectAnswers     int                        `json:"correct_answers"`
	AccuracyRate       float64                    `json:"accuracy_rate"`
	AverageTimeSeconds float64                    `json:"average_time_seconds"`
	ByDifficulty       map[string]*DimensionStats `json:"by_difficulty"`
	BySubject          map[string]*DimensionStats `json:"by_subject"`
}
