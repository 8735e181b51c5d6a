package service

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
)

// Render states of a listing screen. Exactly one applies at a time.
const (
	RenderStateLoading = "loading"
	RenderStateEmpty   = "empty"
	RenderStateList    = "list"
)

// Approval badges.
const (
	BadgeApproved = "approved"
	BadgePending  = "pending"
	BadgeUnknown  = "unknown"
)

const (
	defaultIcon            = "file-earmark"
	downloadsForFullBar    = 10
	placeholderUploader    = "Anonymous"
	placeholderSubject     = "General"
	placeholderYear        = "All Years"
	placeholderDescription = "No description provided."
	maxTitleRunes          = 200
	maxDescriptionRunes    = 600
)

var iconsByType = map[string]string{
	models.MaterialTypePDF:           "file-pdf",
	models.MaterialTypeImage:         "file-image",
	models.MaterialTypeNotes:         "file-text",
	models.MaterialTypePaper:         "file-earmark-text",
	models.MaterialTypeQuestionPaper: "file-earmark-text",
	models.MaterialTypeDocument:      defaultIcon,
}

var badgeLabels = map[string]string{
	BadgeApproved: "Approved",
	BadgePending:  "Pending Review",
	BadgeUnknown:  "Status unknown",
}

var textPolicy = bluemonday.StrictPolicy()

// ResolveFileURL turns a stored file reference into an absolute link. Absolute
// references pass through unchanged, so the function is idempotent.
func ResolveFileURL(origin string, m models.Material) string {
	ref := strings.TrimSpace(m.FileURL)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(ref, "/")
}

// IconFor maps a material type to its icon name. Matching is exact.
func IconFor(materialType string) string {
	if icon, ok := iconsByType[materialType]; ok {
		return icon
	}
	return defaultIcon
}

// ProgressFraction is downloads/10 clamped to [0, 1].
func ProgressFraction(downloads int64) float64 {
	fraction := float64(downloads) / downloadsForFullBar
	switch {
	case fraction < 0:
		return 0
	case fraction > 1:
		return 1
	default:
		return fraction
	}
}

// RenderStateFor picks the single state a listing screen shows.
func RenderStateFor(loading bool, itemCount int) string {
	switch {
	case loading:
		return RenderStateLoading
	case itemCount == 0:
		return RenderStateEmpty
	default:
		return RenderStateList
	}
}

// ApprovalBadge maps the tri-state approval flag to a badge.
func ApprovalBadge(approved *bool) string {
	switch {
	case approved == nil:
		return BadgeUnknown
	case *approved:
		return BadgeApproved
	default:
		return BadgePending
	}
}

// BadgeLabel returns the human label for a badge.
func BadgeLabel(badge string) string {
	return badgeLabels[badge]
}

// SemesterTitle turns a slug like "sem-1" into "Sem 1".
func SemesterTitle(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, part := range parts {
		first, size := utf8.DecodeRuneInString(part)
		parts[i] = string(unicode.ToUpper(first)) + part[size:]
	}
	return strings.Join(parts, " ")
}

// BuildCard projects one material into its display form.
func BuildCard(origin string, m models.Material) dto.MaterialCard {
	badge := ApprovalBadge(m.Approved)
	fileURL := ResolveFileURL(origin, m)
	return dto.MaterialCard{
		ID:           m.ID,
		Title:        cleanText(m.Title, maxTitleRunes, ""),
		Description:  cleanText(m.Description, maxDescriptionRunes, placeholderDescription),
		Subject:      cleanText(m.Subject, 0, placeholderSubject),
		Semester:     cleanText(m.Semester, 0, ""),
		Year:         cleanText(m.UploadYear, 0, placeholderYear),
		Type:         cleanText(m.Type, 0, ""),
		Icon:         IconFor(m.Type),
		UploaderName: cleanText(m.UploaderName, 0, placeholderUploader),
		Badge:        badge,
		BadgeLabel:   BadgeLabel(badge),
		FileURL:      fileURL,
		Downloadable: m.IsApproved() && fileURL != "",
		Views:        m.Views,
		Downloads:    m.Downloads,
		Progress:     ProgressFraction(m.Downloads),
	}
}

// BuildCards projects a listing, preserving order.
func BuildCards(origin string, items []models.Material) []dto.MaterialCard {
	cards := make([]dto.MaterialCard, 0, len(items))
	for _, m := range items {
		cards = append(cards, BuildCard(origin, m))
	}
	return cards
}

// cleanText strips markup from user-submitted text. Templates escape on
// output, so entities produced by the sanitizer are decoded again here.
func cleanText(raw string, maxRunes int, fallback string) string {
	text := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
	if text == "" {
		return fallback
	}
	if maxRunes > 0 {
		if runes := []rune(text); len(runes) > maxRunes {
			text = string(runes[:maxRunes]) + "..."
		}
	}
	return text
}
