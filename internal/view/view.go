package view

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
)

//go:embed templates/*.gohtml
var FS embed.FS

// Template names.
const (
	PageHome         = "home"
	PageSemester     = "semester"
	PageUpload       = "upload"
	PageUploadStatus = "upload_status"
	PageAdmin        = "admin"
	PageConfirm      = "confirm"
	PageError        = "error"
)

// Alert kinds map onto banner styles.
const (
	AlertSuccess = "success"
	AlertInfo    = "info"
	AlertWarning = "warning"
	AlertDanger  = "danger"
)

// Load parses every embedded page template.
func Load() (*template.Template, error) {
	tmpl, err := template.New("pages").Funcs(Funcs()).ParseFS(FS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Funcs are the helpers available to templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"percent": func(f float64) int { return int(math.Round(f * 100)) },
		"upper":   strings.ToUpper,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.Format("02 Jan 2006 15:04 MST")
		},
		"withAll": func(values []string) []string {
			return append([]string{models.FilterAll}, values...)
		},
	}
}

// Alert is a banner shown above page content.
type Alert struct {
	Kind    string
	Message string
}

// Page carries what every layout needs.
type Page struct {
	Title       string
	Description string
	Alert       *Alert
	Year        int
}

// NewPage returns a page with the footer year filled in.
func NewPage(title, description string) Page {
	return Page{Title: title, Description: description, Year: time.Now().Year()}
}

// WithAlert attaches a banner.
func (p Page) WithAlert(kind, message string) Page {
	p.Alert = &Alert{Kind: kind, Message: message}
	return p
}

// SemesterLink is one entry of the home page semester grid.
type SemesterLink struct {
	Slug  string
	Title string
}

// HomeData renders the landing page.
type HomeData struct {
	Page
	Semesters []SemesterLink
	Recent    []dto.MaterialCard
	Health    models.HealthResult
}

// SemesterData renders a semester listing with its filter form.
type SemesterData struct {
	Page
	Slug     string
	Heading  string
	Listing  dto.ListingView
	Subjects []string
	Years    []string
	Types    []string
}

// UploadData renders the upload form, echoing back what was submitted.
type UploadData struct {
	Page
	Form      dto.UploadMaterialRequest
	Semesters []string
	Subjects  []string
	Types     []string
	MaxSizeMB int64
	Created   *models.Material
}

// UploadStatusData renders an uploader's submissions and single-id lookups.
type UploadStatusData struct {
	Page
	UploaderName string
	Searched     bool
	Uploads      []dto.MaterialCard
	Lookup       *dto.UploadStatusResponse
}

// AdminData renders the review dashboard.
type AdminData struct {
	Page
	Tab       string
	Dashboard dto.AdminDashboardResponse
	Loaded    bool
}

// ConfirmData renders the "are you sure" step of an admin action.
type ConfirmData struct {
	Page
	Action string
	ID     int64
}

// ErrorData renders a standalone error page.
type ErrorData struct {
	Page
	Status int
}
