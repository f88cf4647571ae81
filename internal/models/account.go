// internal/models/account.go
package models

import "time"

// Account is a login credential record created as a side effect of
// acceptance. It exists independently of the application afterward:
// retirement is keyed off email plus "never completed first login",
// not off the application row.
type Account struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	ProfileSetup bool      `json:"profileSetup"`
	CreatedAt    time.Time `json:"createdAt"`
}
