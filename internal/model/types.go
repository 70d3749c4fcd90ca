package model

import "strings"

// Role distinguishes item sellers from collectors.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDealer   Role = "dealer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleDealer
}

// Category is the kind of scrap offered in a listing.
type Category string

const (
	CategoryPaper       Category = "Paper"
	CategoryPlastic     Category = "Plastic"
	CategoryMetal       Category = "Metal"
	CategoryElectronics Category = "Electronics"
	CategoryGlass       Category = "Glass"
	CategoryCardboard   Category = "Cardboard"
	CategoryOther       Category = "Other"
)

// Status tracks whether a listing is still waiting for a dealer.
type Status string

const (
	StatusAvailable Status = "available"
	StatusCompleted Status = "completed"
)

// LocalIDPrefix marks listings created while the remote store was unreachable.
const LocalIDPrefix = "LOCAL-"

// IsLocalID reports whether id was generated on this device.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// GeoPoint is a position in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultLocation is substituted when a listing is created without coordinates (Gurgaon centroid).
var DefaultLocation = GeoPoint{Lat: 28.4595, Lng: 77.0266}

// User is a registered customer or dealer.
type User struct {
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	Name       string    `json:"name"`
	IsVerified bool      `json:"isVerified"`
	Location   *GeoPoint `json:"location,omitempty"`
}

// Listing is a scrap offer posted by a customer.
type Listing struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	CustomerName   string   `json:"customerName"`
	CustomerPhone  string   `json:"customerPhone"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	Description    string   `json:"description"`
	Address        string   `json:"address"`
	ImageRefs      []string `json:"imageUrls,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	EstimatedPrice string   `json:"estimatedPrice"`
	Status         Status   `json:"status"`
	PostedDate     string   `json:"postedDate"`
}

// Clone returns a copy that shares no slices or pointers with l.
func (l Listing) Clone() Listing {
	c := l
	if l.ImageRefs != nil {
		c.ImageRefs = append([]string(nil), l.ImageRefs...)
	}
	if l.Lat != nil {
		lat := *l.Lat
		c.Lat = &lat
	}
	if l.Lng != nil {
		lng := *l.Lng
		c.Lng = &lng
	}
	return c
}

// Filters narrows listing queries. Empty fields are not constraints.
type Filters struct {
	CustomerPhone string   `json:"customerPhone,omitempty" form:"customerPhone"`
	Status        Status   `json:"status,omitempty" form:"status"`
	Category      Category `json:"category,omitempty" form:"category"`
}

// Params renders the present filters as remote query parameters.
func (f Filters) Params() map[string]any {
	params := make(map[string]any, 3)
	if f.CustomerPhone != "" {
		params["customerPhone"] = f.CustomerPhone
	}
	if f.Status != "" {
		params["status"] = string(f.Status)
	}
	if f.Category != "" {
		params["category"] = string(f.Category)
	}
	return params
}

// Matches reports whether every present filter equals the listing field exactly.
func (f Filters) Matches(l Listing) bool {
	if f.CustomerPhone != "" && l.CustomerPhone != f.CustomerPhone {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	return true
}

// Snapshot is the persisted form of the session.
type Snapshot struct {
	CurrentUser  *User     `json:"currentUser"`
	Listings     []Listing `json:"listings"`
	IsLoggedIn   bool      `json:"isLoggedIn"`
	UserLocation *GeoPoint `json:"userLocation"`
}
