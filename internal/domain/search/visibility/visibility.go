// Package visibility decides which showrooms a caller may see.
package visibility

import (
	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Role is the caller role asserted by the upstream gateway.
type Role string

// Caller roles. The zero value is a guest.
const (
	RoleGuest Role = ""
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Caller identifies who is asking. A nil *Caller is a guest.
type Caller struct {
	UID  string
	Role Role
}

// Scope is the resolved visibility class.
type Scope string

// Visibility scopes.
const (
	ScopeGuest Scope = "guest"
	ScopeOwner Scope = "owner"
	ScopeAdmin Scope = "admin"
)

// Visibility is the outcome of resolving a caller against a requested status.
type Visibility struct {
	Scope    Scope
	OwnerUID string
	// Status narrows results; empty means every status visible to the scope.
	Status showroom.Status
	// Empty short-circuits the read: nothing is visible.
	Empty bool
}

// Resolve applies the role rules to the requested status filter.
// Guests always see approved records only. Owners see their own records,
// never deleted ones: asking for deleted yields an empty result.
// Admins see everything, optionally narrowed by status.
func Resolve(caller *Caller, requested showroom.Status) Visibility {
	if caller == nil {
		return Visibility{Scope: ScopeGuest, Status: showroom.StatusApproved}
	}
	switch caller.Role {
	case RoleAdmin:
		return Visibility{Scope: ScopeAdmin, Status: requested}
	case RoleOwner:
		v := Visibility{Scope: ScopeOwner, OwnerUID: caller.UID, Status: requested}
		if caller.UID == "" || requested == showroom.StatusDeleted {
			v.Empty = true
		}
		return v
	default:
		return Visibility{Scope: ScopeGuest, Status: showroom.StatusApproved}
	}
}

// Conditions returns the store-side pre-filter for the scope.
func (v Visibility) Conditions() (must, mustNot []filter.Condition) {
	if v.OwnerUID != "" {
		c, _ := filter.NewMatch("ownerUid", v.OwnerUID)
		must = append(must, c)
	}
	if v.Status != "" {
		c, _ := filter.NewMatch("status", string(v.Status))
		must = append(must, c)
	}
	if v.Scope == ScopeOwner && v.Status == "" {
		c, _ := filter.NewMatch("status", string(showroom.StatusDeleted))
		mustNot = append(mustNot, c)
	}
	return must, mustNot
}

// Allows is the application-side post-filter. It re-checks everything the
// pre-filter expresses so a backend that under-filters cannot leak records.
func (v Visibility) Allows(s *showroom.Showroom) bool {
	if v.Empty {
		return false
	}
	if v.Scope != ScopeAdmin && s.Status == showroom.StatusDeleted {
		return false
	}
	if v.Scope == ScopeGuest && s.Status != showroom.StatusApproved {
		return false
	}
	if v.Scope == ScopeOwner && s.OwnerUID != v.OwnerUID {
		return false
	}
	if v.Status != "" && s.Status != v.Status {
		return false
	}
	return true
}
