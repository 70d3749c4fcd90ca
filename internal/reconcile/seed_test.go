package reconcile

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapconnect/sync-client/internal/model"
)

func TestSeedListingsAreFreshCopies(t *testing.T) {
	a := SeedListings()
	a[0].Status = model.StatusCompleted
	*a[0].Lat = 0

	b := SeedListings()
	assert.Equal(t, model.StatusAvailable, b[0].Status)
	assert.Equal(t, 28.4595, *b[0].Lat)
}

func TestApplyFilters(t *testing.T) {
	all := SeedListings()

	tests := []struct {
		name    string
		filters model.Filters
		want    []string
	}{
		{"empty filters are identity", model.Filters{}, []string{"DEMO001", "DEMO002"}},
		{"by phone", model.Filters{CustomerPhone: "+91-8765432109"}, []string{"DEMO002"}},
		{"by category", model.Filters{Category: model.CategoryPaper}, []string{"DEMO001"}},
		{"category is case sensitive", model.Filters{Category: "paper"}, nil},
		{"conjunction", model.Filters{Status: model.StatusAvailable, Category: model.CategoryElectronics}, []string{"DEMO002"}},
		{"no completed seeds", model.Filters{Status: model.StatusCompleted}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range ApplyFilters(all, tt.filters) {
				got = append(got, l.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFiltersResultIsSubset(t *testing.T) {
	all := SeedListings()
	f := model.Filters{Status: model.StatusAvailable}

	for _, l := range ApplyFilters(all, f) {
		assert.True(t, f.Matches(l))
	}
}

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := g.NewID()
		require.True(t, strings.HasPrefix(id, model.LocalIDPrefix), id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSequenceConcurrent(t *testing.T) {
	seq := &Sequence{}

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := seq.NewID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 400)
	assert.Equal(t, "LOCAL-401", seq.NewID())
}
