// Package models holds the sharing-preference and sharing-history types used
// by both the client-side cache/sync layer and the server-side API.
package models

import (
	"time"

	"trustverify/pkg/email"
)

// SharingPreference says which attributes a user shares with one recipient.
// (UserID, RecipientEmail) identifies it; RecipientEmail is always lower-case.
type SharingPreference struct {
	ID             string     `json:"id,omitempty"`
	UserID         string     `json:"userId"`
	RecipientEmail string     `json:"recipientEmail"`
	ShareName      bool       `json:"shareName"`
	SharePhone     bool       `json:"sharePhone"`
	IsActive       *bool      `json:"isActive,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// NormalizeEmail trims and lower-cases a recipient address.
func NormalizeEmail(addr string) string {
	return email.Normalize(addr)
}

// SameRecipient reports whether p addresses addr, ignoring case.
func (p SharingPreference) SameRecipient(addr string) bool {
	return NormalizeEmail(p.RecipientEmail) == NormalizeEmail(addr)
}

// Active treats a missing flag as active; the server only returns active rows.
func (p SharingPreference) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

// SharedData is what actually left the system in one share.
type SharedData struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HistoryStatus is the lifecycle tag of a sharing history entry.
type HistoryStatus string

const (
	HistoryPending HistoryStatus = "pending"
	HistorySent    HistoryStatus = "sent"
	HistoryFailed  HistoryStatus = "failed"
)

// IsValid reports whether s is a known status.
func (s HistoryStatus) IsValid() bool {
	switch s {
	case HistoryPending, HistorySent, HistoryFailed:
		return true
	}
	return false
}

// SharingHistory is one append-only record of a share attempt.
type SharingHistory struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	RecipientEmail string        `json:"recipientEmail"`
	SharedData     SharedData    `json:"sharedData"`
	Status         HistoryStatus `json:"status"`
	SharedAt       time.Time     `json:"sharedAt"`
}

// APIResponse is the envelope of the preferences API.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// CacheEntry is the persisted form of one user's cached preferences.
// LastSync encodes as an RFC 3339 timestamp.
type CacheEntry struct {
	Preferences []SharingPreference `json:"preferences"`
	LastSync    time.Time           `json:"lastSync"`
}

// ShareRequest is the body of a share call.
type ShareRequest struct {
	RecipientEmail string `json:"recipientEmail"`
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
}
