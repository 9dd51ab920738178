package users

import "time"

// Defaults applied to accounts that do not specify a location or carrier.
const (
	DefaultRegion  = "Tunisia"
	DefaultCity    = "Unknown"
	DefaultCarrier = "Other"
)

// Regions accepted at registration.
var Regions = []string{
	"Tunis", "Sfax", "Ariana", "Bizerte", "Sousse", "Monastir",
	"Kairouan", "Kasserine", "Sidi_Bouzid", "Gafsa", "Tozeur",
	"Kebili", "Tataouine", "Ben_Arous", "Manouba", "Nabeul",
}

// Carriers accepted at registration.
var Carriers = []string{"Tunisie_Telecom", "Orange", "Ooredoo", "Other"}

// User is a TuniGuard account holder. Users are never deleted by the scan
// pipeline; it only updates the counters below.
type User struct {
	ID           int64      `json:"user_id"       db:"id"`
	Username     string     `json:"username"      db:"username"`
	AnonymizedID string     `json:"anonymized_id" db:"anonymized_id"`
	PasswordHash string     `json:"-"             db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
	LastScan     *time.Time `json:"last_scan"     db:"last_scan"`
	RiskScore    float64    `json:"risk_score"    db:"risk_score"`
	ScanCount    int        `json:"scan_count"    db:"scan_count"`
	Region       string     `json:"region"        db:"region"`
	City         string     `json:"city"          db:"city"`
	Carrier      string     `json:"carrier"       db:"carrier"`
}

// Location returns "city, region", or just the region when the city is
// unset.
func (u *User) Location() string {
	if u.City == "" || u.City == DefaultCity {
		return u.Region
	}
	return u.City + ", " + u.Region
}

// Profile is the view of a user returned by the API.
type Profile struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	AnonymizedID string     `json:"anonymized_id"`
	Region       string     `json:"region"`
	City         string     `json:"city"`
	Carrier      string     `json:"carrier"`
	RiskScore    float64    `json:"risk_score"`
	ScanCount    int        `json:"scan_count"`
	LastScan     *time.Time `json:"last_scan"`
	MemberSince  time.Time  `json:"member_since"`
}

// RegisterRequest is the body accepted by Register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Carrier  string `json:"carrier"`
}
