package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
)

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	tmpl, err := Load()
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, tmpl.ExecuteTemplate(buf, name, data))
	return buf.String()
}

func semesterData(state string, cards ...dto.MaterialCard) SemesterData {
	return SemesterData{
		Page:     NewPage("Sem 1", ""),
		Slug:     "sem-1",
		Heading:  "Sem 1",
		Subjects: []string{"Physics", "Maths"},
		Years:    []string{"2024"},
		Types:    []string{"notes"},
		Listing: dto.ListingView{
			State:     state,
			Selection: models.FilterSelection{Semester: "sem-1", Subject: "Maths", Year: "All", Type: "All"},
			Cards:     cards,
			Total:     len(cards),
		},
	}
}

func TestSemesterRenderStatesAreExclusive(t *testing.T) {
	loading := render(t, PageSemester, semesterData("loading"))
	assert.Contains(t, loading, "Loading materials")
	assert.NotContains(t, loading, "No materials found")

	empty := render(t, PageSemester, semesterData("empty"))
	assert.Contains(t, empty, "No materials found")
	assert.NotContains(t, empty, "Loading materials")

	list := render(t, PageSemester, semesterData("list", dto.MaterialCard{ID: 1, Title: "Matrices", Badge: "approved", BadgeLabel: "Approved"}))
	assert.Contains(t, list, "Matrices")
	assert.NotContains(t, list, "No materials found")
	assert.NotContains(t, list, "Loading materials")
}

func TestSemesterKeepsSelection(t *testing.T) {
	out := render(t, PageSemester, semesterData("empty"))
	assert.Contains(t, out, `<option value="Maths" selected>`)
	assert.Contains(t, out, `<option value="All">All</option>`)
	assert.Contains(t, out, `href="/semester/sem-1/reset"`)
	assert.Contains(t, out, "SEM 1")
}

func TestCardDownloadAffordance(t *testing.T) {
	out := render(t, PageSemester, semesterData("list",
		dto.MaterialCard{ID: 1, Title: "Ready", Badge: "approved", Downloadable: true, FileURL: "http://files/a.pdf"},
		dto.MaterialCard{ID: 2, Title: "Waiting", Badge: "pending", FileURL: "http://files/b.pdf"},
	))
	assert.Contains(t, out, `href="http://files/a.pdf"`)
	assert.NotContains(t, out, `href="http://files/b.pdf"`)
	assert.Contains(t, out, "Awaiting approval")
}

func TestCardEscapesText(t *testing.T) {
	out := render(t, PageSemester, semesterData("list", dto.MaterialCard{ID: 1, Title: "<b>bold</b>", Badge: "unknown", BadgeLabel: "Status unknown"}))
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, out, "Status unknown")
	assert.Contains(t, out, "bi-question-circle")
}

func TestHomeShowsOfflineBanner(t *testing.T) {
	out := render(t, PageHome, HomeData{
		Page:      NewPage("Home", ""),
		Semesters: []SemesterLink{{Slug: "sem-1", Title: "Sem 1"}},
		Health:    models.HealthResult{Status: models.HealthStatusOffline},
	})
	assert.Contains(t, out, "All backends are offline")
	assert.Contains(t, out, `href="/semester/sem-1"`)
}

func TestConfirmPagePostsConfirmation(t *testing.T) {
	out := render(t, PageConfirm, ConfirmData{Page: NewPage("Confirm", ""), Action: "delete", ID: 12})
	assert.Contains(t, out, `action="/admin/delete/12"`)
	assert.Contains(t, out, `name="confirm" value="yes"`)
	assert.Contains(t, out, "permanently deleted")
}

func TestAlertBanner(t *testing.T) {
	out := render(t, PageError, ErrorData{Page: NewPage("Oops", "").WithAlert(AlertDanger, "all 2 backends are unreachable"), Status: 503})
	assert.Contains(t, out, `class="alert alert-danger"`)
	assert.Contains(t, out, "all 2 backends are unreachable")
}

func TestAdminTabs(t *testing.T) {
	out := render(t, PageAdmin, AdminData{
		Page:   NewPage("Admin", ""),
		Tab:    "pending",
		Loaded: true,
		Dashboard: dto.AdminDashboardResponse{
			Pending:      []dto.MaterialCard{{ID: 4, Title: "Queued", Badge: "pending"}},
			PendingCount: 1,
		},
	})
	assert.Contains(t, out, "Pending (1)")
	assert.Contains(t, out, `href="/admin/approve/4"`)
	assert.Contains(t, out, `href="/admin/delete/4"`)
}

func TestAdminPendingTabHasNoFileLink(t *testing.T) {
	const secret = "https://files.example/uploads/secret.pdf"
	data := AdminData{
		Page:   NewPage("Admin Dashboard", ""),
		Tab:    "pending",
		Loaded: true,
		Dashboard: dto.AdminDashboardResponse{
			Pending:      []dto.MaterialCard{{ID: 4, Title: "Unreviewed", Badge: "pending", BadgeLabel: "Pending review", FileURL: secret}},
			PendingCount: 1,
		},
	}

	out := render(t, PageAdmin, data)
	assert.Contains(t, out, "Unreviewed")
	assert.Contains(t, out, `href="/admin/approve/4"`)
	assert.NotContains(t, out, secret)
}

func TestAdminApprovedTabLinksDownloadableFiles(t *testing.T) {
	const file = "https://files.example/uploads/ok.pdf"
	data := AdminData{
		Page:   NewPage("Admin Dashboard", ""),
		Tab:    "approved",
		Loaded: true,
		Dashboard: dto.AdminDashboardResponse{
			Approved:      []dto.MaterialCard{{ID: 5, Title: "Reviewed", Badge: "approved", BadgeLabel: "Approved", FileURL: file, Downloadable: true}},
			ApprovedCount: 1,
		},
	}

	out := render(t, PageAdmin, data)
	assert.Contains(t, out, file)
	assert.Contains(t, out, `href="/admin/delete/5"`)
}
