package model

import (
	"time"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Account is a registered identity. Accounts are append-only: once created
// they are never updated or deleted. PasswordDigest is a mock digest (see
// util.Digest), kept in the persisted blob so login can compare it.
type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordDigest   string    `json:"passwordDigest"`
	Name             string    `json:"name"`
	Plan             Plan      `json:"plan"`
	SubscriptionDate time.Time `json:"subscriptionDate"`
	DetectionsUsed   int       `json:"detectionsUsed"`
}

type RegisterParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
