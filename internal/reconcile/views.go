package reconcile

import (
	"context"

	"scrapconnect/sync-client/internal/model"
)

const (
	revenuePerCollection = 1500
	earningsPerDeal      = 500
	recentActivityLimit  = 5
)

// Dashboard summarizes the dealer home screen.
type Dashboard struct {
	TotalCollections int             `json:"totalCollections"`
	MonthlyRevenue   int             `json:"monthlyRevenue"`
	PendingPickups   int             `json:"pendingPickups"`
	RecentActivity   []model.Listing `json:"recentActivity"`
	Source           Source          `json:"source"`
}

// ProfileStats summarizes the current user's locally known listings.
type ProfileStats struct {
	TotalListings  int `json:"totalListings"`
	CompletedDeals int `json:"completedDeals"`
	TotalEarnings  int `json:"totalEarnings"`
}

// Marketplace lists everything still available for collection.
func (s *Service) Marketplace(ctx context.Context) ListingsResult {
	return s.GetListings(ctx, model.Filters{Status: model.StatusAvailable})
}

// History lists a customer's own listings, or a dealer's completed collections.
// Without a logged-in user the history is empty.
func (s *Service) History(ctx context.Context) ListingsResult {
	u, ok := s.state.CurrentUser()
	if !ok {
		return ListingsResult{Listings: []model.Listing{}, Source: SourceDegraded}
	}
	if u.Role == model.RoleDealer {
		return s.GetListings(ctx, model.Filters{Status: model.StatusCompleted})
	}
	return s.GetListings(ctx, model.Filters{CustomerPhone: u.Phone})
}

// DealerDashboard combines pending pickups from the marketplace with collections
// recorded on this device.
func (s *Service) DealerDashboard(ctx context.Context) Dashboard {
	available := s.Marketplace(ctx)

	completed := 0
	for _, l := range s.state.Listings() {
		if l.Status == model.StatusCompleted {
			completed++
		}
	}

	recent := available.Listings
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}

	return Dashboard{
		TotalCollections: completed,
		MonthlyRevenue:   completed * revenuePerCollection,
		PendingPickups:   len(available.Listings),
		RecentActivity:   recent,
		Source:           available.Source,
	}
}

// ProfileStats counts the current user's listings known to this device.
func (s *Service) ProfileStats() ProfileStats {
	u, ok := s.state.CurrentUser()
	if !ok {
		return ProfileStats{}
	}

	var stats ProfileStats
	for _, l := range s.state.Listings() {
		if l.CustomerPhone != u.Phone {
			continue
		}
		stats.TotalListings++
		if l.Status == model.StatusCompleted {
			stats.CompletedDeals++
		}
	}
	stats.TotalEarnings = stats.CompletedDeals * earningsPerDeal
	return stats
}
