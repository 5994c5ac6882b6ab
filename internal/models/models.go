package models

import (
	"strings"
	"time"
)

// Status is the outreach lifecycle state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusInvited   Status = "invited"
	StatusConnected Status = "connected"
	StatusIgnored   Status = "ignored"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInvited, StatusConnected, StatusIgnored:
		return true
	}
	return false
}

// CanTransition reports whether a lead may move from one status to another.
// Leads only move forward: new -> invited|ignored, invited -> connected.
// Nothing ever returns to new.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusNew:
		return to == StatusInvited || to == StatusIgnored
	case StatusInvited:
		return to == StatusConnected
	}
	return false
}

// Lead is one prospect, keyed by its canonical profile URL.
type Lead struct {
	ID            int64
	LinkedInURL   string
	FirstName     string
	LastName      string
	FullName      string
	JobTitle      string
	Location      string
	Bio           string
	Company       string
	Industry      string
	LastPostTopic string
	Status        Status
	CreatedAt     time.Time
}

type ActionType string

const (
	ActionViewProfile ActionType = "view_profile"
	ActionSendInvite  ActionType = "send_invite"
	ActionSendMessage ActionType = "send_message"
)

// ActionLogEntry is one immutable audit record. The store assigns the
// timestamp at insertion time.
type ActionLogEntry struct {
	ID        int64
	Type      ActionType
	TargetURL string
	Timestamp time.Time
}

// SplitName splits a full name into first name and the remainder.
// "Jane Q Public" -> ("Jane", "Q Public").
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
