package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
)

var analysisTestColumns = []string{"id", "grade_level", "specialization", "quarter", "total_questions", "responses", "created_at"}

func TestAnalysisRepositoryListDecodesResponses(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewAnalysisRepository(gw)

	encoded := `[{"questionNo":1,"correctCount":30,"totalExaminees":50}]`
	rows := sqlmock.NewRows(analysisTestColumns).
		AddRow("1", 9, "TVL - ICT", 2, 10, encoded, time.Now())
	mock.ExpectQuery("SELECT id::text AS id, .+ FROM analyses ORDER BY created_at DESC").
		WillReturnRows(rows)

	analyses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	require.Len(t, analyses[0].Responses, 1)
	assert.Equal(t, 30, analyses[0].Responses[0].CorrectCount)
	assert.Equal(t, 50, analyses[0].Responses[0].TotalExaminees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryCreateRoundTrip(t *testing.T) {
	gw, mock, cleanup := newGatewayMock(t)
	defer cleanup()
	repo := NewAnalysisRepository(gw)

	encoded := `[{"questionNo":1,"correctCount":42,"totalExaminees":50}]`
	mock.ExpectQuery("INSERT INTO analyses").
		WillReturnRows(sqlmock.NewRows(analysisTestColumns).
			AddRow("5", 10, "TVL - ICT", 3, 1, encoded, time.Now()))

	analysis := models.ItemAnalysis{
		GradeLevel:     10,
		Specialization: "TVL - ICT",
		Quarter:        3,
		TotalQuestions: 1,
		Responses:      []models.QuestionResponse{{QuestionNo: 1, CorrectCount: 42, TotalExaminees: 50}},
	}
	require.NoError(t, repo.Create(context.Background(), &analysis))
	assert.Equal(t, "5", analysis.ID)
	require.Len(t, analysis.Responses, 1)
	assert.Equal(t, 42, analysis.Responses[0].CorrectCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
