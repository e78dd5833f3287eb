package models

import "time"

// LoginAttempt is a durable failed-login record.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	Login       string    `db:"login"`
	IPAddress   string    `db:"ip_address"`
	AttemptedAt time.Time `db:"attempted_at"`
}

// LockoutStatus is the durable lockout state of one login.
type LockoutStatus struct {
	Locked         bool
	FailedAttempts int
	MinutesLeft    int
}
