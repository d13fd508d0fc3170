package models

import (
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

// GroupStatus is a label the creator sets on a group. It does not restrict writes.
type GroupStatus string

const (
	GroupActive   GroupStatus = "active"
	GroupSettled  GroupStatus = "settled"
	GroupArchived GroupStatus = "archived"
)

// ParseGroupStatus maps "" to GroupActive and rejects unknown values.
func ParseGroupStatus(s string) (GroupStatus, error) {
	switch st := GroupStatus(s); st {
	case "":
		return GroupActive, nil
	case GroupActive, GroupSettled, GroupArchived:
		return st, nil
	default:
		return "", fmt.Errorf("unknown group status %q", s)
	}
}

// Group is a set of members who share expenses in one currency.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	Description string

	// Status defaults to GroupActive.
	Status GroupStatus

	// Currency is the only currency expenses and settlements in this group may use.
	Currency money.Currency

	// Members lists everyone who has ever joined, inactive members included, so that
	// historical expenses keep resolving.
	Members []Member

	// CreatedBy is the user ID of the creator.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is one participant's identity within a single group.
type Member struct {
	ID          string
	GroupID     string
	DisplayName string

	// UserID links the member to an authenticated user. Empty for members who were added
	// by name only and cannot act on their own behalf.
	UserID string

	// Active is false once the member has left the group.
	Active bool

	JoinedAt int64
}

// MemberIDs returns the IDs of every member, active or not, in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// FindMember returns the member with the given ID.
func (g *Group) FindMember(memberID string) (*Member, bool) {
	for i := range g.Members {
		if g.Members[i].ID == memberID {
			return &g.Members[i], true
		}
	}
	return nil, false
}

// MemberForUser returns the active member linked to userID.
func (g *Group) MemberForUser(userID string) (*Member, bool) {
	if userID == "" {
		return nil, false
	}
	for i := range g.Members {
		if g.Members[i].UserID == userID && g.Members[i].Active {
			return &g.Members[i], true
		}
	}
	return nil, false
}
