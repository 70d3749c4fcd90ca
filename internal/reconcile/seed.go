package reconcile

import "scrapconnect/sync-client/internal/model"

// SeedListings returns the two demonstration listings that are always part of
// local results. Each call returns fresh copies.
func SeedListings() []model.Listing {
	lat1, lng1 := 28.4595, 77.0266
	lat2, lng2 := 28.4743, 77.1017

	return []model.Listing{
		{
			ID:             "DEMO001",
			Category:       model.CategoryPaper,
			CustomerName:   "Raj Kumar",
			CustomerPhone:  "+91-9876543210",
			Quantity:       50,
			Unit:           "kg",
			Description:    "Old newspapers and magazines",
			Address:        "MG Road, Sector 14, Gurgaon, Haryana",
			ImageRefs:      []string{},
			Lat:            &lat1,
			Lng:            &lng1,
			EstimatedPrice: "₹150-200",
			Status:         model.StatusAvailable,
			PostedDate:     "2025-08-17",
		},
		{
			ID:             "DEMO002",
			Category:       model.CategoryElectronics,
			CustomerName:   "Priya Sharma",
			CustomerPhone:  "+91-8765432109",
			Quantity:       5,
			Unit:           "pieces",
			Description:    "Old mobile phones and chargers",
			Address:        "DLF Phase 2, Gurgaon, Haryana",
			ImageRefs:      []string{},
			Lat:            &lat2,
			Lng:            &lng2,
			EstimatedPrice: "₹750-1000",
			Status:         model.StatusAvailable,
			PostedDate:     "2025-08-16",
		},
	}
}

// ApplyFilters returns the listings matching every present filter, in order.
// An empty filter set returns listings unchanged.
func ApplyFilters(listings []model.Listing, f model.Filters) []model.Listing {
	if f == (model.Filters{}) {
		return listings
	}

	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
