package services

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

func newTestImportExportService(repo *mockRepository) ImportExportService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewImportExportService(repo, logger, utils.NewValidator())
}

const importCSV = `title,description,level,difficulty,subject,chapter,type,active,content,tags
Les angles,,6e,easy,Mathématiques,Géométrie,true_false,true,"{""statement"": ""Un angle droit mesure 90 degrés."", ""correct_answer"": true}","angles,géométrie"
Mesure,,6e,bad-difficulty,Mathématiques,,numeric,true,"{""question"": ""Longueur ?"", ""correct_answer"": 5.0}",
`

func TestImportExportService_ImportCSV(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	service := newTestImportExportService(repo)

	repo.memocards.On("Create", ctx, mock.AnythingOfType("*models.Memocard")).Return(nil)

	result, err := service.ImportMemocardsFromCSV(ctx, strings.NewReader(importCSV), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	require.Len(t, result.Memocards, 1)
	card := result.Memocards[0]
	assert.Equal(t, "Les angles", card.Title)
	assert.Equal(t, models.TypeTrueFalse, card.Type)
	assert.Equal(t, "admin-1", card.CreatedBy)
	assert.JSONEq(t, `["angles", "géométrie"]`, string(card.Tags))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "difficulty", result.Errors[0].Column)
}

func TestImportExportService_ImportCSV_MissingColumns(t *testing.T) {
	ctx := context.Background()
	service := newTestImportExportService(newMockRepository())

	_, err := service.ImportMemocardsFromCSV(ctx, strings.NewReader("title,level\nX,6e\n"), "admin-1")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestImportExportService_ExportCSV(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	service := newTestImportExportService(repo)

	cards := []*models.Memocard{
		buildCard(t, models.TypeNumeric, models.NumericContent{
			Question:      "Longueur du segment ?",
			CorrectAnswer: 5.0,
			Tolerance:     0.1,
			Unit:          "cm",
		}),
	}
	repo.memocards.On("List", ctx, mock.AnythingOfType("repositories.MemocardFilters")).
		Return(cards, int64(len(cards)), nil)

	data, err := service.ExportMemocardsToCSV(ctx, repositories.MemocardFilters{})
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Title")
	assert.Contains(t, lines[1], "Test card")
	assert.Contains(t, lines[1], "numeric")
}
