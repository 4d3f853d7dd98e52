package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SchoolLevel string

const (
	LevelSixieme   SchoolLevel = "6e"
	LevelCinquieme SchoolLevel = "5e"
	LevelQuatrieme SchoolLevel = "4e"
	LevelTroisieme SchoolLevel = "3e"
	LevelSeconde   SchoolLevel = "2nde"
	LevelPremiere  SchoolLevel = "1ere"
	LevelTerminale SchoolLevel = "Terminale"
)

// SchoolLevels is the fixed set of supported school levels, in curriculum order.
var SchoolLevels = []SchoolLevel{
	LevelSixieme,
	LevelCinquieme,
	LevelQuatrieme,
	LevelTroisieme,
	LevelSeconde,
	LevelPremiere,
	LevelTerminale,
}

func IsValidSchoolLevel(level SchoolLevel) bool {
	for _, l := range SchoolLevels {
		if l == level {
			return true
		}
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyExpert DifficultyLevel = "expert"
)

var DifficultyLevels = []DifficultyLevel{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
}

func IsValidDifficultyLevel(difficulty DifficultyLevel) bool {
	for _, d := range DifficultyLevels {
		if d == difficulty {
			return true
		}
	}
	return false
}

type MemocardType string

const (
	TypeTrueFalse      MemocardType = "true_false"
	TypeMultipleChoice MemocardType = "multiple_choice"
	TypeText           MemocardType = "text"
	TypeNumeric        MemocardType = "numeric"
)

// MemocardTypes is a closed set: the grading engine has no pluggable types.
var MemocardTypes = []MemocardType{
	TypeTrueFalse,
	TypeMultipleChoice,
	TypeText,
	TypeNumeric,
}

func IsValidMemocardType(t MemocardType) bool {
	for _, mt := range MemocardTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// Memocard is a single quiz card with a typed answer key. Content holds the
// answer key whose shape depends on Type; the type of a card never changes
// after creation.
type Memocard struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string          `json:"description" gorm:"type:text" validate:"max=1000"`
	Level       SchoolLevel     `json:"level" gorm:"not null;index" validate:"required,school_level"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;index" validate:"required,difficulty_level"`
	Subject     string          `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	Chapter     string          `json:"chapter" gorm:"size:200" validate:"max=200"`
	Type        MemocardType    `json:"type" gorm:"not null" validate:"required,memocard_type"`
	IsActive    bool            `json:"is_active" gorm:"default:true;index"`
	Content     datatypes.JSON  `json:"content" gorm:"type:jsonb;not null" validate:"required"`
	Tags        datatypes.JSON  `json:"tags" gorm:"type:jsonb"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Memocard) TableName() string {
	return "memocards"
}

// ===== TYPED ANSWER-KEY CONTENT =====

type TrueFalseContent struct {
	Statement     string `json:"statement" validate:"required"`
	CorrectAnswer bool   `json:"correct_answer"`
}

type MultipleChoiceContent struct {
	Question       string   `json:"question" validate:"required"`
	Options        []string `json:"options" validate:"required,min=2"`
	CorrectOptions []int    `json:"correct_options" validate:"required,min=1"`
}

type TextContent struct {
	Question      string `json:"question" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type NumericContent struct {
	Question      string  `json:"question" validate:"required"`
	CorrectAnswer float64 `json:"correct_answer"`
	Tolerance     float64 `json:"tolerance" validate:"min=0"`
	Unit          string  `json:"unit,omitempty"`
}

// TrueFalseContent decodes the answer key of a true_false card.
func (m *Memocard) TrueFalseContent() (*TrueFalseContent, error) {
	var content TrueFalseContent
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid true_false content for memocard %d: %w", m.ID, err)
	}
	return &content, nil
}

func (m *Memocard) MultipleChoiceContent() (*MultipleChoiceContent, error) {
	var content MultipleChoiceContent
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid multiple_choice content for memocard %d: %w", m.ID, err)
	}
	return &content, nil
}

func (m *Memocard) TextContent() (*TextContent, error) {
	var content TextContent
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid text content for memocard %d: %w", m.ID, err)
	}
	return &content, nil
}

func (m *Memocard) NumericContent() (*NumericContent, error) {
	var content NumericContent
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid numeric content for memocard %d: %w", m.ID, err)
	}
	return &content, nil
}
