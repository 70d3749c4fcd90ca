// Package session holds the in-memory view of the current user, known listings and location.
package session

import (
	"sync"

	"scrapconnect/sync-client/internal/model"
)

// State is the single owner of session data. Only the reconciling service mutates it;
// readers get copies.
type State struct {
	mu           sync.RWMutex
	currentUser  *model.User
	listings     []model.Listing
	isLoggedIn   bool
	userLocation *model.GeoPoint
}

// New returns an empty, logged-out session.
func New() *State {
	return &State{}
}

// Hydrate replaces the whole state with a stored snapshot.
func (s *State) Hydrate(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentUser = cloneUser(snap.CurrentUser)
	s.listings = cloneListings(snap.Listings)
	s.isLoggedIn = snap.IsLoggedIn
	s.userLocation = clonePoint(snap.UserLocation)
}

// Snapshot returns a deep copy suitable for persistence.
func (s *State) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.Snapshot{
		CurrentUser:  cloneUser(s.currentUser),
		Listings:     cloneListings(s.listings),
		IsLoggedIn:   s.isLoggedIn,
		UserLocation: clonePoint(s.userLocation),
	}
}

// Login makes u the current user.
func (s *State) Login(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentUser = cloneUser(&u)
	s.isLoggedIn = true
}

// Logout resets the session but keeps the locally accumulated listings, so a
// second user on the same device still sees them.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentUser = nil
	s.isLoggedIn = false
	s.userLocation = nil
}

// AppendListing records a listing known only to this device.
func (s *State) AppendListing(l model.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = append(s.listings, l.Clone())
}

// UpdateListing applies fn to the local listing with id and reports whether it was found.
func (s *State) UpdateListing(id string, fn func(*model.Listing)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			fn(&s.listings[i])
			return true
		}
	}
	return false
}

// SetLocation records the resolved device location.
func (s *State) SetLocation(p model.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userLocation = &p
}

// CurrentUser returns a copy of the logged-in user.
func (s *State) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentUser == nil {
		return model.User{}, false
	}
	return *cloneUser(s.currentUser), true
}

// IsLoggedIn reports whether a user is logged in.
func (s *State) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoggedIn
}

// Location returns the last resolved device location.
func (s *State) Location() (model.GeoPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.userLocation == nil {
		return model.GeoPoint{}, false
	}
	return *s.userLocation, true
}

// Listings returns copies of the locally known listings in insertion order.
func (s *State) Listings() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneListings(s.listings)
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Location = clonePoint(u.Location)
	return &c
}

func clonePoint(p *model.GeoPoint) *model.GeoPoint {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneListings(in []model.Listing) []model.Listing {
	out := make([]model.Listing, len(in))
	for i, l := range in {
		out[i] = l.Clone()
	}
	return out
}
