package domain

import "time"

// Competition is a time-boxed ranking context for one chat group and one
// target token.
type Competition struct {
	GroupID     string        `json:"group_id"`
	TargetToken string        `json:"target_token"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
}

// EndTime returns StartTime + Duration.
func (c *Competition) EndTime() time.Time {
	return c.StartTime.Add(c.Duration)
}

// StatusAt computes the lifecycle state at now. Expiry is never stored.
func (c *Competition) StatusAt(now time.Time) CompetitionStatus {
	if c == nil {
		return StatusNoCompetition
	}
	if now.After(c.EndTime()) {
		return StatusExpired
	}
	return StatusActive
}

// Window returns the aggregation window of the competition, capped at now.
func (c *Competition) Window(now time.Time) Window {
	end := c.EndTime()
	if now.Before(end) {
		end = now
	}
	return NewWindow(c.StartTime, end)
}

// CompetitionStatus is the per-group lifecycle state.
type CompetitionStatus string

const (
	StatusNoCompetition CompetitionStatus = "NO_COMPETITION"
	StatusActive        CompetitionStatus = "ACTIVE"
	StatusExpired       CompetitionStatus = "EXPIRED"
)

// String returns the string representation of CompetitionStatus.
func (s CompetitionStatus) String() string {
	return string(s)
}

// WalletRegistration links a chat user to a wallet inside a group.
type WalletRegistration struct {
	GroupID      string    `json:"group_id"`
	UserID       string    `json:"user_id"`
	Wallet       string    `json:"wallet"`
	RegisteredAt time.Time `json:"registered_at"`
}
