package service

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

type recordingLister struct {
	mu      sync.Mutex
	queries []url.Values
	list    models.MaterialList
}

func (r *recordingLister) ListMaterials(_ context.Context, query url.Values) models.MaterialList {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.list.Items == nil {
		return models.EmptyMaterialList()
	}
	return r.list
}

// gatedLister blocks each call until the test releases it, so resolution
// order can be controlled independently of submission order.
type gatedLister struct {
	started chan string
	release map[string]chan models.MaterialList
}

func newGatedLister(subjects ...string) *gatedLister {
	g := &gatedLister{started: make(chan string, len(subjects)), release: map[string]chan models.MaterialList{}}
	for _, s := range subjects {
		g.release[s] = make(chan models.MaterialList, 1)
	}
	return g
}

func (g *gatedLister) ListMaterials(_ context.Context, query url.Values) models.MaterialList {
	subject := query.Get(models.FilterFieldSubject)
	g.started <- subject
	return <-g.release[subject]
}

func TestFilterQueryOmitsAllSentinel(t *testing.T) {
	ctrl := NewFilterController(&recordingLister{}, "sem-1")

	assert.Equal(t, url.Values{"semester": {"sem-1"}}, ctrl.Query())

	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Physics"))
	require.NoError(t, ctrl.SetField(models.FilterFieldYear, "All"))
	require.NoError(t, ctrl.SetField(models.FilterFieldType, ""))

	assert.Equal(t, url.Values{"semester": {"sem-1"}, "subject": {"Physics"}}, ctrl.Query())
}

func TestFilterSetFieldMergesOneField(t *testing.T) {
	ctrl := NewFilterController(&recordingLister{}, "sem-2")
	require.NoError(t, ctrl.SetField(models.FilterFieldYear, "2023"))
	require.NoError(t, ctrl.SetField(models.FilterFieldType, "notes"))

	sel := ctrl.Selection()
	assert.Equal(t, "sem-2", sel.Semester)
	assert.Equal(t, "All", sel.Subject)
	assert.Equal(t, "2023", sel.Year)
	assert.Equal(t, "notes", sel.Type)

	err := ctrl.SetField("colour", "red")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFilterResetKeepsSemester(t *testing.T) {
	lister := &recordingLister{}
	ctrl := NewFilterController(lister, "sem-3")
	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Maths"))
	require.NoError(t, ctrl.SetField(models.FilterFieldYear, "2022"))

	result := ctrl.Reset(context.Background())

	assert.Equal(t, models.DefaultFilterSelection("sem-3"), result.Selection)
	require.Len(t, lister.queries, 1)
	assert.Equal(t, url.Values{"semester": {"sem-3"}}, lister.queries[0])
}

func TestFilterSubmitAppliesResult(t *testing.T) {
	lister := &recordingLister{list: models.MaterialList{Items: []models.Material{{ID: 1}}, Total: 1}}
	ctrl := NewFilterController(lister, "sem-1")

	result := ctrl.Submit(context.Background())

	assert.False(t, result.Stale)
	assert.False(t, ctrl.Loading())
	current, gen := ctrl.Current()
	assert.Equal(t, result.Generation, gen)
	assert.Len(t, current.Items, 1)
}

func TestFilterLastSubmittedQueryWins(t *testing.T) {
	lister := newGatedLister("Physics", "Maths")
	ctrl := NewFilterController(lister, "sem-1")
	ctx := context.Background()

	results := make(chan FilterResult, 2)

	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Physics"))
	go func() { results <- ctrl.Submit(ctx) }()
	require.Equal(t, "Physics", <-lister.started)

	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Maths"))
	go func() { results <- ctrl.Submit(ctx) }()
	require.Equal(t, "Maths", <-lister.started)

	assert.True(t, ctrl.Loading())

	// The newer query resolves first, the older one afterwards.
	lister.release["Maths"] <- models.MaterialList{Items: []models.Material{{ID: 2, Subject: "Maths"}}, Total: 1}
	newer := <-results
	lister.release["Physics"] <- models.MaterialList{Items: []models.Material{{ID: 1, Subject: "Physics"}}, Total: 1}
	older := <-results

	assert.False(t, newer.Stale)
	assert.True(t, older.Stale)
	assert.Greater(t, newer.Generation, older.Generation)

	current, gen := ctrl.Current()
	assert.Equal(t, newer.Generation, gen)
	require.Len(t, current.Items, 1)
	assert.Equal(t, "Maths", current.Items[0].Subject)
	assert.False(t, ctrl.Loading())
}

func TestFilterOlderResponseResolvingFirstIsDiscarded(t *testing.T) {
	lister := newGatedLister("Physics", "Maths")
	ctrl := NewFilterController(lister, "sem-1")
	ctx := context.Background()
	results := make(chan FilterResult, 2)

	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Physics"))
	go func() { results <- ctrl.Submit(ctx) }()
	<-lister.started
	require.NoError(t, ctrl.SetField(models.FilterFieldSubject, "Maths"))
	go func() { results <- ctrl.Submit(ctx) }()
	<-lister.started

	lister.release["Physics"] <- models.MaterialList{Items: []models.Material{{ID: 1}}, Total: 1}
	older := <-results
	assert.True(t, older.Stale)
	assert.True(t, ctrl.Loading(), "newest query still in flight")

	_, gen := ctrl.Current()
	assert.Zero(t, gen)

	lister.release["Maths"] <- models.EmptyMaterialList()
	newer := <-results
	assert.False(t, newer.Stale)
	current, _ := ctrl.Current()
	assert.Empty(t, current.Items)
}
