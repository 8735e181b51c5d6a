package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

// MaterialLister is the listing half of the materials repository.
type MaterialLister interface {
	ListMaterials(ctx context.Context, query url.Values) models.MaterialList
}

// FilterResult is the outcome of one submitted query.
type FilterResult struct {
	Generation uint64
	Selection  models.FilterSelection
	List       models.MaterialList
	// Stale is set when a newer query was submitted before this one resolved.
	// Stale results are never applied to the controller's displayed state.
	Stale bool
}

// FilterController holds the filter selection of one listing screen and
// sequences the queries it issues: the last submitted query wins.
type FilterController struct {
	lister MaterialLister

	mu         sync.Mutex
	selection  models.FilterSelection
	generation uint64
	applied    uint64
	loading    bool
	current    models.MaterialList
}

// NewFilterController starts a controller on a semester with every other field set to All.
func NewFilterController(lister MaterialLister, semester string) *FilterController {
	return &FilterController{
		lister:    lister,
		selection: models.DefaultFilterSelection(semester),
		current:   models.EmptyMaterialList(),
	}
}

// Selection returns a copy of the current selection.
func (f *FilterController) Selection() models.FilterSelection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selection
}

// SetField merges one field into the selection, leaving the others untouched.
func (f *FilterController) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	value = strings.TrimSpace(value)
	switch name {
	case models.FilterFieldSemester:
		f.selection.Semester = value
	case models.FilterFieldSubject:
		f.selection.Subject = value
	case models.FilterFieldYear:
		f.selection.Year = value
	case models.FilterFieldType:
		f.selection.Type = value
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown filter field %q", name))
	}
	return nil
}

// Apply replaces subject, year and type in one step. Empty values mean All.
func (f *FilterController) Apply(selection models.FilterSelection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := strings.TrimSpace(selection.Semester); s != "" {
		f.selection.Semester = s
	}
	f.selection.Subject = orAll(selection.Subject)
	f.selection.Year = orAll(selection.Year)
	f.selection.Type = orAll(selection.Type)
}

// Query maps the selection to query parameters. The semester is always sent;
// fields equal to All or blank are omitted.
func (f *FilterController) Query() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return QueryFor(f.selection)
}

// QueryFor is the stateless form of Query.
func QueryFor(sel models.FilterSelection) url.Values {
	query := url.Values{}
	query.Set(models.FilterFieldSemester, sel.Semester)
	for key, value := range map[string]string{
		models.FilterFieldSubject: sel.Subject,
		models.FilterFieldYear:    sel.Year,
		models.FilterFieldType:    sel.Type,
	} {
		if constrains(value) {
			query.Set(key, value)
		}
	}
	return query
}

// Submit issues the listing query for the current selection.
func (f *FilterController) Submit(ctx context.Context) FilterResult {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	sel := f.selection
	f.loading = true
	f.mu.Unlock()

	list := f.lister.ListMaterials(ctx, QueryFor(sel))

	f.mu.Lock()
	defer f.mu.Unlock()
	result := FilterResult{Generation: gen, Selection: sel, List: list}
	if gen != f.generation {
		result.Stale = true
		return result
	}
	f.current = list
	f.applied = gen
	f.loading = false
	return result
}

// Reset restores subject, year and type to All, keeps the semester and re-submits.
func (f *FilterController) Reset(ctx context.Context) FilterResult {
	f.mu.Lock()
	f.selection = models.DefaultFilterSelection(f.selection.Semester)
	f.mu.Unlock()
	return f.Submit(ctx)
}

// Loading reports whether the most recent query is still in flight.
func (f *FilterController) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Current returns the last applied listing and the generation that produced it.
func (f *FilterController) Current() (models.MaterialList, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.applied
}

func constrains(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != models.FilterAll
}

func orAll(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return models.FilterAll
	}
	return value
}
