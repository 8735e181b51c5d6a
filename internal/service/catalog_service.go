package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/pkg/config"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
	"github.com/noah-isme/study-portal/pkg/export"
)

// Export formats accepted by CatalogService.Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// DefaultRecentLimit is how many materials the home page previews.
const DefaultRecentLimit = 6

var exportHeaders = []string{"ID", "Title", "Subject", "Semester", "Year", "Type", "Uploader", "Status", "Downloads", "File"}

// CatalogOptions are the choices offered by the filter form.
type CatalogOptions struct {
	Semesters []string `json:"semesters"`
	Subjects  []string `json:"subjects"`
	Years     []string `json:"years"`
	Types     []string `json:"types"`
}

// ExportResult is a rendered catalog export.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CatalogService serves filtered listings and exports of the materials catalog.
type CatalogService struct {
	materials  MaterialLister
	fileOrigin string
	options    CatalogOptions
	exporters  map[string]export.Exporter
	logger     *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(materials MaterialLister, fileOrigin string, catalog config.CatalogConfig, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		materials:  materials,
		fileOrigin: fileOrigin,
		options: CatalogOptions{
			Semesters: catalog.Semesters,
			Subjects:  catalog.Subjects,
			Years:     catalog.Years,
			Types:     catalog.Types,
		},
		exporters: map[string]export.Exporter{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// Options returns the filter choices.
func (s *CatalogService) Options() CatalogOptions {
	return s.options
}

// FileOrigin is the origin relative file references resolve against.
func (s *CatalogService) FileOrigin() string {
	return s.fileOrigin
}

// NewFilter returns a controller seeded with the given selection.
func (s *CatalogService) NewFilter(selection models.FilterSelection) *FilterController {
	ctrl := NewFilterController(s.materials, selection.Semester)
	ctrl.Apply(selection)
	return ctrl
}

// List runs the selection through a filter controller and builds the view.
func (s *CatalogService) List(ctx context.Context, selection models.FilterSelection) dto.ListingView {
	return s.view(s.NewFilter(selection).Submit(ctx))
}

// Reset lists the semester with every other field back to All.
func (s *CatalogService) Reset(ctx context.Context, semester string) dto.ListingView {
	return s.view(s.NewFilter(models.DefaultFilterSelection(semester)).Reset(ctx))
}

// Recent returns the first materials of the unfiltered listing.
func (s *CatalogService) Recent(ctx context.Context, limit int) []dto.MaterialCard {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	list := s.materials.ListMaterials(ctx, nil)
	items := list.Items
	if len(items) > limit {
		items = items[:limit]
	}
	return BuildCards(s.fileOrigin, items)
}

// Export renders the filtered listing in the requested format.
func (s *CatalogService) Export(ctx context.Context, selection models.FilterSelection, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	result := s.NewFilter(selection).Submit(ctx)
	cards := BuildCards(s.fileOrigin, result.List.Items)

	dataset := export.Dataset{
		Title:   exportTitle(result.Selection),
		Headers: exportHeaders,
		Rows:    make([]map[string]string, 0, len(cards)),
	}
	for _, card := range cards {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":        strconv.FormatInt(card.ID, 10),
			"Title":     card.Title,
			"Subject":   card.Subject,
			"Semester":  card.Semester,
			"Year":      card.Year,
			"Type":      card.Type,
			"Uploader":  card.UploaderName,
			"Status":    card.BadgeLabel,
			"Downloads": strconv.FormatInt(card.Downloads, 10),
			"File":      card.FileURL,
		})
	}

	payload, err := exporter.Render(dataset)
	if err != nil {
		s.logger.Error("catalog export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    exportFilename(result.Selection, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        payload,
	}, nil
}

func (s *CatalogService) view(result FilterResult) dto.ListingView {
	cards := BuildCards(s.fileOrigin, result.List.Items)
	return dto.ListingView{
		State:      RenderStateFor(false, len(cards)),
		Selection:  result.Selection,
		Cards:      cards,
		Total:      result.List.Total,
		Generation: result.Generation,
	}
}

func exportTitle(sel models.FilterSelection) string {
	title := "Study Materials"
	if sel.Semester != "" {
		title += " - " + SemesterTitle(sel.Semester)
	}
	var parts []string
	for _, v := range []string{sel.Subject, sel.Year, sel.Type} {
		if constrains(v) {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		title += " (" + strings.Join(parts, ", ") + ")"
	}
	return title
}

func exportFilename(sel models.FilterSelection, ext string) string {
	semester := sanitizeFilename(sel.Semester)
	return fmt.Sprintf("materials_%s_%s.%s", semester, time.Now().UTC().Format("20060102_150405"), ext)
}

// sanitizeFilename keeps [A-Za-z0-9._-] so the name is safe inside a quoted
// Content-Disposition parameter.
func sanitizeFilename(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '\\' || r == ':':
			b.WriteRune('_')
		}
	}
	result := strings.Trim(b.String(), "._")
	for strings.Contains(result, "..") {
		result = strings.ReplaceAll(result, "..", ".")
	}
	if result == "" {
		return "all"
	}
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
