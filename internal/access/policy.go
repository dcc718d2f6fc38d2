// Package access decides who may read journals and who may manage circles.
// Every function is a pure predicate; callers resolve memberships from the store
// immediately before asking, so revoked memberships take effect on the next check.
package access

import "moodcircle/internal/models"

// Memberships is the set of circle ids a user belongs to, owned circles included.
type Memberships map[int]struct{}

func NewMemberships(circleIDs ...int) Memberships {
	m := make(Memberships, len(circleIDs))
	for _, id := range circleIDs {
		m[id] = struct{}{}
	}
	return m
}

// MembershipsOf collects the ids of circles.
func MembershipsOf(circles []models.Circle) Memberships {
	m := make(Memberships, len(circles))
	for _, c := range circles {
		m[c.ID] = struct{}{}
	}
	return m
}

func (m Memberships) Has(circleID int) bool {
	_, ok := m[circleID]
	return ok
}

// CanReadJournal reports whether userID may read j: owners always may, anyone may
// read a public journal, and members may read journals shared with their circle.
func CanReadJournal(j models.Journal, userID int, memberOf Memberships) bool {
	if j.UserID == userID {
		return true
	}
	if j.IsPublic {
		return true
	}
	return j.SharedWithCircleID != nil && memberOf.Has(*j.SharedWithCircleID)
}

// CanShareWithCircle reports whether userID currently belongs to circleID in any role.
func CanShareWithCircle(circleID int, memberOf Memberships) bool {
	return memberOf.Has(circleID)
}

// CanManageCircle reports whether userID may add or remove members of c.
func CanManageCircle(userID int, c models.Circle) bool {
	return c.OwnerID == userID
}
