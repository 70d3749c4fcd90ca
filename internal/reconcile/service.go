// Package reconcile decides, for every read and write, whether the remote store or
// the local cache answers, and keeps the session consistent either way.
//
// No operation returns an error: remote failures degrade to a local result and the
// outcome is reported through notices.
package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"scrapconnect/sync-client/internal/model"
	"scrapconnect/sync-client/internal/notify"
	"scrapconnect/sync-client/internal/pricing"
	"scrapconnect/sync-client/internal/remote"
	"scrapconnect/sync-client/internal/session"
	"scrapconnect/sync-client/internal/store"
)

// Remote actions understood by the spreadsheet backend.
const (
	ActionCreateUser      = "createUser"
	ActionCreateListing   = "createListing"
	ActionListings        = "listings"
	ActionCompleteListing = "completeListing"
)

const (
	defaultDescription = "No description provided"
	dateLayout         = "2006-01-02"
)

// Source says where a listing result came from.
type Source string

const (
	// SourceRemote is a non-empty, authoritative remote result.
	SourceRemote Source = "remote"
	// SourceRemoteEmpty is a valid remote answer with no listings, backed by seed and local data.
	SourceRemoteEmpty Source = "remote-empty"
	// SourceDegraded is seed and local data served because the remote was unreachable.
	SourceDegraded Source = "degraded"
)

// ListingsResult is the answer to a listing query.
type ListingsResult struct {
	Listings []model.Listing `json:"listings"`
	Source   Source          `json:"source"`
}

// Service is the reconciling data service.
type Service struct {
	remote  remote.Caller
	cache   *store.Cache
	state   *session.State
	notices notify.Publisher
	ids     IDGenerator
	now     func() time.Time
	country string
	logger  *zap.Logger

	// writeMu orders session mutations with their cache writes.
	writeMu sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithIDGenerator replaces the default UUIDv7 local id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotices sets where advisory notices go.
func WithNotices(p notify.Publisher) Option {
	return func(s *Service) { s.notices = p }
}

// WithCountryCode sets the dialing prefix used to normalize phone numbers.
func WithCountryCode(code string) Option {
	return func(s *Service) { s.country = code }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the service to its gateway, cache and session.
func NewService(caller remote.Caller, cache *store.Cache, state *session.State, opts ...Option) *Service {
	s := &Service{
		remote:  caller,
		cache:   cache,
		state:   state,
		notices: notify.Multi(nil),
		ids:     UUIDGenerator{},
		now:     time.Now,
		country: "91",
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session exposes the state for read-only use by the presentation layer.
func (s *Service) Session() *session.State {
	return s.state
}

// Restore hydrates the session from the local cache when a logged-in session was saved.
func (s *Service) Restore(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	snap, ok := s.cache.Load(ctx)
	if !ok || !snap.IsLoggedIn || snap.CurrentUser == nil {
		return false
	}
	s.state.Hydrate(snap)
	s.logger.Info("session restored", zap.String("phone", snap.CurrentUser.Phone), zap.Int("listings", len(snap.Listings)))
	return true
}

// CreateUser registers a user. Registration always succeeds for the caller; only
// the sync outcome differs. The new user becomes the logged-in user.
func (s *Service) CreateUser(ctx context.Context, in model.UserInput) model.User {
	phone := model.NormalizePhone(s.country, in.Phone)
	name := in.DisplayName()

	loc := in.Location
	if loc == nil {
		if p, ok := s.state.Location(); ok {
			loc = &p
		} else {
			def := model.DefaultLocation
			loc = &def
		}
	}

	user := model.User{Phone: phone, Role: in.Role, Name: name, Location: loc}

	data, err := s.remote.Call(ctx, ActionCreateUser, http.MethodPost, map[string]any{
		"phone":    phone,
		"role":     string(in.Role),
		"name":     name,
		"location": loc,
	})
	if err != nil {
		s.logger.Info("registering user locally", zap.String("phone", phone), zap.Error(err))
		s.notify(ctx, notify.KindLocalFallback, ActionCreateUser, "Account created on this device (backup mode)")
	} else {
		var remoteUser model.User
		if decodeWrapped(data, "user", &remoteUser) {
			user = remoteUser
		}
		s.notify(ctx, notify.KindSynced, ActionCreateUser, "Account created and synced")
	}

	user.Phone = phone
	user.Role = in.Role
	user.IsVerified = true
	if user.Name == "" {
		user.Name = name
	}
	if user.Location == nil {
		user.Location = loc
	}

	s.commit(ctx, func() { s.state.Login(user) })
	return user
}

// CreateListing posts a listing. When the remote store accepts it, the remote
// listing is returned and nothing is cached locally. Otherwise the listing gets a
// local id, is appended to the session and written through to the cache.
func (s *Service) CreateListing(ctx context.Context, in model.ListingInput) model.Listing {
	draft := s.draftListing(in)

	data, err := s.remote.Call(ctx, ActionCreateListing, http.MethodPost, listingPayload(draft))
	if err == nil {
		listing := draft
		var remoteListing model.Listing
		if decodeWrapped(data, "listing", &remoteListing) && remoteListing.ID != "" {
			listing = remoteListing
		} else {
			listing.PostedDate = s.now().Format(dateLayout)
			s.logger.Warn("remote accepted listing without returning an id", zap.ByteString("data", truncate(data, 256)))
		}
		s.notify(ctx, notify.KindSynced, ActionCreateListing, "Listing synced")
		return listing
	}

	listing := draft
	listing.ID = s.ids.NewID()
	listing.Status = model.StatusAvailable
	listing.PostedDate = s.now().Format(dateLayout)

	s.commit(ctx, func() { s.state.AppendListing(listing) })

	s.logger.Info("listing saved locally", zap.String("id", listing.ID), zap.Error(err))
	s.notify(ctx, notify.KindLocalFallback, ActionCreateListing, "Listing saved locally (backup mode)")
	return listing
}

// GetListings answers a filtered listing query. A non-empty remote result is
// authoritative and returned as is. Otherwise seed and locally known listings are
// filtered with the same rules the remote applies.
func (s *Service) GetListings(ctx context.Context, f model.Filters) ListingsResult {
	data, err := s.remote.Call(ctx, ActionListings, http.MethodGet, f.Params())
	if err == nil {
		listings, ok := decodeListings(data)
		switch {
		case ok && len(listings) > 0:
			return ListingsResult{Listings: listings, Source: SourceRemote}
		case ok:
			s.notify(ctx, notify.KindRemoteEmpty, ActionListings, "No listings on the server yet. Showing local data.")
			return ListingsResult{Listings: s.localListings(f), Source: SourceRemoteEmpty}
		default:
			s.logger.Warn("remote listings payload not understood", zap.ByteString("data", truncate(data, 256)))
		}
	}

	s.notify(ctx, notify.KindDegradedRead, ActionListings, "Connection issue. Using local data for now.")
	return ListingsResult{Listings: s.localListings(f), Source: SourceDegraded}
}

// EstimatePrice is the pure pricing rule used for new listings.
func (s *Service) EstimatePrice(category model.Category, quantity float64) pricing.Range {
	return pricing.Estimate(category, quantity)
}

// SetLocation records a resolved device location.
func (s *Service) SetLocation(ctx context.Context, p model.GeoPoint) {
	s.commit(ctx, func() { s.state.SetLocation(p) })
}

// Logout ends the session and removes the stored record. Locally created listings
// stay in memory.
func (s *Service) Logout(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.state.Logout()
	if s.cache != nil {
		s.cache.Clear(ctx)
	}
}

// CompleteListing marks a listing collected. The remote store is asked first;
// when it is unreachable only listings created on this device can be completed.
func (s *Service) CompleteListing(ctx context.Context, id string) (model.Listing, bool) {
	markCompleted := func(l *model.Listing) { l.Status = model.StatusCompleted }

	data, err := s.remote.Call(ctx, ActionCompleteListing, http.MethodPost, map[string]any{"id": id})
	if err == nil {
		s.commitIf(ctx, func() bool { return s.state.UpdateListing(id, markCompleted) })
		s.notify(ctx, notify.KindSynced, ActionCompleteListing, "Collection recorded")

		var remoteListing model.Listing
		if decodeWrapped(data, "listing", &remoteListing) && remoteListing.ID != "" {
			return remoteListing, true
		}
		if l, ok := s.findLocal(id); ok {
			return l, true
		}
		return model.Listing{ID: id, Status: model.StatusCompleted}, true
	}

	if !model.IsLocalID(id) || !s.commitIf(ctx, func() bool { return s.state.UpdateListing(id, markCompleted) }) {
		s.logger.Info("cannot complete listing offline", zap.String("id", id), zap.Error(err))
		return model.Listing{}, false
	}
	s.notify(ctx, notify.KindLocalFallback, ActionCompleteListing, "Collection recorded locally (backup mode)")

	l, _ := s.findLocal(id)
	return l, true
}

func (s *Service) draftListing(in model.ListingInput) model.Listing {
	l := model.Listing{
		Category:      in.Category,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Quantity:      in.Quantity,
		Unit:          in.Unit,
		Description:   strings.TrimSpace(in.Description),
		Address:       strings.TrimSpace(in.Address),
		ImageRefs:     append([]string{}, in.ImageRefs...),
		Status:        model.StatusAvailable,
	}

	if u, ok := s.state.CurrentUser(); ok {
		if l.CustomerName == "" {
			l.CustomerName = u.Name
		}
		if l.CustomerPhone == "" {
			l.CustomerPhone = u.Phone
		}
	}
	if l.Description == "" {
		l.Description = defaultDescription
	}

	loc := model.DefaultLocation
	if in.Location != nil {
		loc = *in.Location
	} else if p, ok := s.state.Location(); ok {
		loc = p
	}
	l.Lat, l.Lng = &loc.Lat, &loc.Lng

	l.EstimatedPrice = pricing.Estimate(l.Category, l.Quantity).String()
	return l
}

func listingPayload(l model.Listing) map[string]any {
	return map[string]any{
		"customerName":   l.CustomerName,
		"customerPhone":  l.CustomerPhone,
		"category":       string(l.Category),
		"quantity":       l.Quantity,
		"unit":           l.Unit,
		"description":    l.Description,
		"address":        l.Address,
		"imageUrls":      l.ImageRefs,
		"lat":            *l.Lat,
		"lng":            *l.Lng,
		"estimatedPrice": l.EstimatedPrice,
	}
}

// localListings is the seed set followed by the session's listings, filtered.
func (s *Service) localListings(f model.Filters) []model.Listing {
	all := append(SeedListings(), s.state.Listings()...)
	return ApplyFilters(all, f)
}

func (s *Service) findLocal(id string) (model.Listing, bool) {
	for _, l := range s.state.Listings() {
		if l.ID == id {
			return l, true
		}
	}
	return model.Listing{}, false
}

// commit applies mutate and writes the resulting snapshot through while holding
// writeMu, so the cache never ends up with an older snapshot than the session.
func (s *Service) commit(ctx context.Context, mutate func()) {
	s.commitIf(ctx, func() bool { mutate(); return true })
}

// commitIf persists only when mutate reports a change.
func (s *Service) commitIf(ctx context.Context, mutate func() bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !mutate() {
		return false
	}
	s.persist(ctx)
	return true
}

func (s *Service) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Save(ctx, s.state.Snapshot())
}

func (s *Service) notify(ctx context.Context, kind notify.Kind, op, msg string) {
	s.notices.Publish(ctx, notify.Notice{Kind: kind, Operation: op, Message: msg, At: s.now()})
}

// decodeWrapped decodes data[key] when data is an object carrying key, else data itself.
func decodeWrapped(data json.RawMessage, key string, v any) bool {
	if len(data) == 0 || string(data) == "null" {
		return false
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if inner, ok := wrapper[key]; ok {
			return json.Unmarshal(inner, v) == nil
		}
	}
	return json.Unmarshal(data, v) == nil
}

// decodeListings accepts a bare array or an object with a "listings" array.
// A missing or null payload counts as an empty result.
func decodeListings(data json.RawMessage) ([]model.Listing, bool) {
	if len(data) == 0 || string(data) == "null" {
		return nil, true
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err == nil {
		return listings, true
	}

	var wrapped struct {
		Listings []model.Listing `json:"listings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Listings != nil {
		return wrapped.Listings, true
	}
	return nil, false
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
