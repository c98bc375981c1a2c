package tenant

import "time"

type Entity struct {
	ID             int64
	ExternalID     string
	Name           string
	SchemaName     string
	CityIDs        []int64
	RiderLimit     int32
	CashLimitMinor int64
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
