package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	t.Run("true_false takes a boolean", func(t *testing.T) {
		answer, err := ParseAnswer(TypeTrueFalse, json.RawMessage(`true`))
		require.NoError(t, err)
		assert.Equal(t, AnswerBool, answer.Kind)
		assert.True(t, answer.Bool)

		_, err = ParseAnswer(TypeTrueFalse, json.RawMessage(`"true"`))
		assert.Error(t, err)
	})

	t.Run("multiple_choice takes a list of indices", func(t *testing.T) {
		answer, err := ParseAnswer(TypeMultipleChoice, json.RawMessage(`[2, 0]`))
		require.NoError(t, err)
		assert.Equal(t, AnswerIndices, answer.Kind)
		assert.Equal(t, []int{2, 0}, answer.Indices)
	})

	t.Run("multiple_choice scalar becomes a singleton", func(t *testing.T) {
		answer, err := ParseAnswer(TypeMultipleChoice, json.RawMessage(`1`))
		require.NoError(t, err)
		assert.Equal(t, []int{1}, answer.Indices)
	})

	t.Run("multiple_choice rejects strings", func(t *testing.T) {
		_, err := ParseAnswer(TypeMultipleChoice, json.RawMessage(`"A"`))
		assert.Error(t, err)
	})

	t.Run("text takes a string", func(t *testing.T) {
		answer, err := ParseAnswer(TypeText, json.RawMessage(`"la somme"`))
		require.NoError(t, err)
		assert.Equal(t, AnswerText, answer.Kind)
		assert.Equal(t, "la somme", answer.Text)

		_, err = ParseAnswer(TypeText, json.RawMessage(`42`))
		assert.Error(t, err)
	})

	t.Run("numeric keeps the textual form of a JSON number", func(t *testing.T) {
		answer, err := ParseAnswer(TypeNumeric, json.RawMessage(`5.05`))
		require.NoError(t, err)
		assert.Equal(t, AnswerNumeric, answer.Kind)
		assert.Equal(t, "5.05", answer.Text)
	})

	t.Run("numeric accepts any string, even non-numeric", func(t *testing.T) {
		// Grading decides whether the text parses; parsing here would turn
		// a wrong answer into a rejected request.
		answer, err := ParseAnswer(TypeNumeric, json.RawMessage(`"abc"`))
		require.NoError(t, err)
		assert.Equal(t, AnswerNumeric, answer.Kind)
		assert.Equal(t, "abc", answer.Text)
	})

	t.Run("numeric rejects other shapes", func(t *testing.T) {
		_, err := ParseAnswer(TypeNumeric, json.RawMessage(`[5]`))
		assert.Error(t, err)
	})

	t.Run("raw payload survives parsing", func(t *testing.T) {
		raw := json.RawMessage(`[2, 0]`)
		answer, err := ParseAnswer(TypeMultipleChoice, raw)
		require.NoError(t, err)
		assert.Equal(t, raw, answer.Raw)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ParseAnswer("matching", json.RawMessage(`true`))
		assert.Error(t, err)
	})
}
