package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mathsia/memocard-service/internal/models"
)

// Grading feedback strings. The product is French-language; these are
// user-facing and must stay byte-identical across question types.
const (
	feedbackCorrect        = "Bonne réponse !"
	feedbackIncorrectIs    = "Réponse incorrecte. La bonne réponse est : "
	feedbackNotANumber     = "Réponse invalide. La réponse doit être un nombre."
	feedbackTrueFalseTrue  = "Vrai"
	feedbackTrueFalseFalse = "Faux"
)

// GradeAnswer compares a submitted answer against a card's answer key and
// returns correctness plus a feedback string. It is a pure function of
// (card, answer): no storage access, no side effects.
//
// A numeric submission that does not parse as a number is graded incorrect
// with a dedicated feedback message rather than returned as an error; every
// other type mismatch is an ErrInvalidAnswerFormat. A card type outside the
// closed set is ErrUnknownMemocardType.
func GradeAnswer(card *models.Memocard, answer models.Answer) (bool, string, error) {
	switch card.Type {
	case models.TypeTrueFalse:
		return gradeTrueFalse(card, answer)
	case models.TypeMultipleChoice:
		return gradeMultipleChoice(card, answer)
	case models.TypeText:
		return gradeText(card, answer)
	case models.TypeNumeric:
		return gradeNumeric(card, answer)
	default:
		return false, "", fmt.Errorf("%w: %q", ErrUnknownMemocardType, card.Type)
	}
}

func gradeTrueFalse(card *models.Memocard, answer models.Answer) (bool, string, error) {
	if answer.Kind != models.AnswerBool {
		return false, "", fmt.Errorf("%w: true_false card expects a boolean", ErrInvalidAnswerFormat)
	}

	content, err := card.TrueFalseContent()
	if err != nil {
		return false, "", err
	}

	if answer.Bool == content.CorrectAnswer {
		return true, feedbackCorrect, nil
	}

	correct := feedbackTrueFalseFalse
	if content.CorrectAnswer {
		correct = feedbackTrueFalseTrue
	}
	return false, feedbackIncorrectIs + correct, nil
}

func gradeMultipleChoice(card *models.Memocard, answer models.Answer) (bool, string, error) {
	if answer.Kind != models.AnswerIndices {
		return false, "", fmt.Errorf("%w: multiple_choice card expects option indices", ErrInvalidAnswerFormat)
	}

	content, err := card.MultipleChoiceContent()
	if err != nil {
		return false, "", err
	}

	// Exact set equality: order-independent, no partial credit.
	if equalIndexSets(answer.Indices, content.CorrectOptions) {
		return true, feedbackCorrect, nil
	}

	correctTexts := make([]string, 0, len(content.CorrectOptions))
	for _, idx := range content.CorrectOptions {
		if idx >= 0 && idx < len(content.Options) {
			correctTexts = append(correctTexts, content.Options[idx])
		}
	}
	return false, feedbackIncorrectIs + strings.Join(correctTexts, ", "), nil
}

func gradeText(card *models.Memocard, answer models.Answer) (bool, string, error) {
	if answer.Kind != models.AnswerText {
		return false, "", fmt.Errorf("%w: text card expects a string", ErrInvalidAnswerFormat)
	}

	content, err := card.TextContent()
	if err != nil {
		return false, "", err
	}

	submitted := answer.Text
	correct := content.CorrectAnswer
	if !content.CaseSensitive {
		submitted = strings.ToLower(submitted)
		correct = strings.ToLower(correct)
	}

	// Exact equality after case folding: no trimming, no fuzzy matching.
	if submitted == correct {
		return true, feedbackCorrect, nil
	}
	return false, feedbackIncorrectIs + correct, nil
}

func gradeNumeric(card *models.Memocard, answer models.Answer) (bool, string, error) {
	if answer.Kind != models.AnswerNumeric {
		return false, "", fmt.Errorf("%w: numeric card expects a number", ErrInvalidAnswerFormat)
	}

	content, err := card.NumericContent()
	if err != nil {
		return false, "", err
	}

	submitted, parseErr := strconv.ParseFloat(strings.TrimSpace(answer.Text), 64)
	if parseErr != nil {
		// Graded, not raised: a non-numeric submission is a wrong answer.
		return false, feedbackNotANumber, nil
	}

	// Tolerance boundary is inclusive.
	if math.Abs(submitted-content.CorrectAnswer) <= content.Tolerance {
		return true, feedbackCorrect, nil
	}

	feedback := feedbackIncorrectIs + formatNumericAnswer(content.CorrectAnswer)
	if content.Unit != "" {
		feedback += " " + content.Unit
	}
	return false, feedback, nil
}

func equalIndexSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// formatNumericAnswer renders the answer key for feedback. Whole values keep
// one decimal ("5.0", not "5") so the correction reads as a measurement.
func formatNumericAnswer(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
