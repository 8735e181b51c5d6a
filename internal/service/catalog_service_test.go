package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/pkg/config"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

func sampleCatalog() config.CatalogConfig {
	return config.CatalogConfig{
		Semesters: []string{"sem-1", "sem-2"},
		Subjects:  []string{"Physics", "Maths"},
		Years:     []string{"2023", "2024"},
		Types:     []string{"notes", "pdf"},
	}
}

func TestCatalogListBuildsView(t *testing.T) {
	lister := &recordingLister{list: models.MaterialList{
		Items: []models.Material{
			{ID: 1, Title: "Kinematics", Approved: boolPtr(true), FileURL: "/uploads/k.pdf", Type: "pdf"},
			{ID: 2, Title: "Vectors", Approved: boolPtr(false), Type: "notes"},
		},
		Total: 12,
	}}
	svc := NewCatalogService(lister, "http://localhost:8080", sampleCatalog(), nil)

	view := svc.List(context.Background(), models.FilterSelection{Semester: "sem-1", Subject: "Physics"})

	assert.Equal(t, RenderStateList, view.State)
	assert.Equal(t, 12, view.Total)
	require.Len(t, view.Cards, 2)
	assert.Equal(t, "http://localhost:8080/uploads/k.pdf", view.Cards[0].FileURL)
	assert.True(t, view.Cards[0].Downloadable)
	assert.False(t, view.Cards[1].Downloadable)
	assert.Equal(t, "All", view.Selection.Year)

	require.Len(t, lister.queries, 1)
	assert.Equal(t, url.Values{"semester": {"sem-1"}, "subject": {"Physics"}}, lister.queries[0])
}

func TestCatalogListEmptyState(t *testing.T) {
	svc := NewCatalogService(&recordingLister{}, "", sampleCatalog(), nil)

	view := svc.List(context.Background(), models.DefaultFilterSelection("sem-4"))

	assert.Equal(t, RenderStateEmpty, view.State)
	assert.NotNil(t, view.Cards)
	assert.Zero(t, view.Total)
}

func TestCatalogResetDropsFilters(t *testing.T) {
	lister := &recordingLister{}
	svc := NewCatalogService(lister, "", sampleCatalog(), nil)

	view := svc.Reset(context.Background(), "sem-2")

	assert.Equal(t, models.DefaultFilterSelection("sem-2"), view.Selection)
	assert.Equal(t, url.Values{"semester": {"sem-2"}}, lister.queries[0])
}

func TestCatalogRecentLimitsItems(t *testing.T) {
	items := make([]models.Material, 0, 9)
	for i := 1; i <= 9; i++ {
		items = append(items, models.Material{ID: int64(i)})
	}
	svc := NewCatalogService(&recordingLister{list: models.MaterialList{Items: items, Total: 9}}, "", sampleCatalog(), nil)

	recent := svc.Recent(context.Background(), 0)

	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, int64(1), recent[0].ID)
}

func TestCatalogExportCSV(t *testing.T) {
	lister := &recordingLister{list: models.MaterialList{
		Items: []models.Material{{ID: 5, Title: "Organic Chemistry", Subject: "Chemistry", Approved: boolPtr(true)}},
		Total: 1,
	}}
	svc := NewCatalogService(lister, "", sampleCatalog(), nil)

	result, err := svc.Export(context.Background(), models.DefaultFilterSelection("sem-1"), "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "materials_sem-1_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))
	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Title,Subject,Semester,Year,Type,Uploader,Status,Downloads,File", lines[0])
	assert.Contains(t, lines[1], "Organic Chemistry")
	assert.Contains(t, lines[1], "Approved")
}

func TestCatalogExportPDF(t *testing.T) {
	svc := NewCatalogService(&recordingLister{}, "", sampleCatalog(), nil)

	result, err := svc.Export(context.Background(), models.DefaultFilterSelection("sem-1"), "PDF")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestCatalogExportRejectsUnknownFormat(t *testing.T) {
	svc := NewCatalogService(&recordingLister{}, "", sampleCatalog(), nil)

	_, err := svc.Export(context.Background(), models.DefaultFilterSelection("sem-1"), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportTitle(t *testing.T) {
	assert.Equal(t, "Study Materials - Sem 1", exportTitle(models.DefaultFilterSelection("sem-1")))
	assert.Equal(t, "Study Materials - Sem 2 (Physics, 2024)", exportTitle(models.FilterSelection{
		Semester: "sem-2", Subject: "Physics", Year: "2024", Type: "All",
	}))
}

func TestSanitizeFilenameKeepsHeaderSafeCharacters(t *testing.T) {
	tests := map[string]string{
		"sem-1":       "sem-1",
		`a"b;c`:       "abc",
		"sem 2/notes": "sem_2_notes",
		"../../etc":   "etc",
		"":            "all",
		`";`:          "all",
		"Résumé.v1":   "Rsum.v1",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
