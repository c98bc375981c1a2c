package rider

import "time"

const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

const BlockReasonCashLimit = "cash_balance_limit_exceeded"

type Entity struct {
	ID               string
	TenantID         int64
	ExternalID       string
	Name             string
	Phone            string
	CityID           int64
	Status           string
	BlockedReason    string
	CashBalanceMinor int64
	DeliveriesTotal  int32
	LastLatitude     float64
	LastLongitude    float64
	LastSeenAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Location is one rider position as reported by the delivery platform. It is
// both persisted as the rider's last known position and fanned out over the
// realtime hub.
type Location struct {
	RiderID    string    `json:"rider_id"`
	CityID     int64     `json:"city_id"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ListFilter struct {
	CityID int64
	Status string
	Limit  int32
	Offset int32
}

type MetricsInput struct {
	ExternalRiderID  string
	CityID           int64
	CashBalanceMinor int64
	DeliveriesTotal  int32
}

type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type UploadResult struct {
	Processed int               `json:"processed"`
	Errors    []ValidationError `json:"errors"`
}

// CapacityStatus reports how close a tenant's active fleet is to its
// configured rider limit.
type CapacityStatus struct {
	TenantID     int64 `json:"tenant_id"`
	ActiveRiders int64 `json:"active_riders"`
	RiderLimit   int32 `json:"rider_limit"`
	AtLimit      bool  `json:"at_limit"`
}
