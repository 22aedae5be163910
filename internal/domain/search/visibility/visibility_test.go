package visibility

import (
	"testing"

	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		caller    *Caller
		requested showroom.Status
		want      Visibility
	}{
		{"guest ignores status", nil, showroom.StatusDraft,
			Visibility{Scope: ScopeGuest, Status: showroom.StatusApproved}},
		{"unknown role is guest", &Caller{UID: "u1", Role: "editor"}, "",
			Visibility{Scope: ScopeGuest, Status: showroom.StatusApproved}},
		{"owner all", &Caller{UID: "u1", Role: RoleOwner}, "",
			Visibility{Scope: ScopeOwner, OwnerUID: "u1"}},
		{"owner pending", &Caller{UID: "u1", Role: RoleOwner}, showroom.StatusPending,
			Visibility{Scope: ScopeOwner, OwnerUID: "u1", Status: showroom.StatusPending}},
		{"owner deleted is empty", &Caller{UID: "u1", Role: RoleOwner}, showroom.StatusDeleted,
			Visibility{Scope: ScopeOwner, OwnerUID: "u1", Status: showroom.StatusDeleted, Empty: true}},
		{"owner without uid is empty", &Caller{Role: RoleOwner}, "",
			Visibility{Scope: ScopeOwner, Empty: true}},
		{"admin all", &Caller{UID: "a", Role: RoleAdmin}, "",
			Visibility{Scope: ScopeAdmin}},
		{"admin deleted", &Caller{UID: "a", Role: RoleAdmin}, showroom.StatusDeleted,
			Visibility{Scope: ScopeAdmin, Status: showroom.StatusDeleted}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.caller, tc.requested); got != tc.want {
				t.Errorf("Resolve = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestConditions(t *testing.T) {
	must, mustNot := Resolve(nil, "").Conditions()
	if len(must) != 1 || must[0].Key() != "status" || must[0].Match() != "approved" || len(mustNot) != 0 {
		t.Errorf("guest conditions = %v / %v", must, mustNot)
	}

	must, mustNot = Resolve(&Caller{UID: "u1", Role: RoleOwner}, "").Conditions()
	if len(must) != 1 || must[0].Key() != "ownerUid" {
		t.Errorf("owner must = %v", must)
	}
	if len(mustNot) != 1 || mustNot[0].Match() != "deleted" {
		t.Errorf("owner mustNot = %v", mustNot)
	}

	must, mustNot = Resolve(&Caller{Role: RoleAdmin}, "").Conditions()
	if len(must) != 0 || len(mustNot) != 0 {
		t.Errorf("admin conditions = %v / %v", must, mustNot)
	}
}

func TestAllows(t *testing.T) {
	approved := &showroom.Showroom{ID: "1", OwnerUID: "u1", Status: showroom.StatusApproved}
	draft := &showroom.Showroom{ID: "2", OwnerUID: "u1", Status: showroom.StatusDraft}
	deleted := &showroom.Showroom{ID: "3", OwnerUID: "u1", Status: showroom.StatusDeleted}
	foreign := &showroom.Showroom{ID: "4", OwnerUID: "u2", Status: showroom.StatusApproved}

	guest := Resolve(nil, "")
	owner := Resolve(&Caller{UID: "u1", Role: RoleOwner}, "")
	admin := Resolve(&Caller{Role: RoleAdmin}, "")

	checks := []struct {
		name string
		v    Visibility
		s    *showroom.Showroom
		want bool
	}{
		{"guest approved", guest, approved, true},
		{"guest draft", guest, draft, false},
		{"guest deleted", guest, deleted, false},
		{"owner own draft", owner, draft, true},
		{"owner own deleted", owner, deleted, false},
		{"owner foreign", owner, foreign, false},
		{"admin deleted", admin, deleted, true},
	}
	for _, c := range checks {
		if got := c.v.Allows(c.s); got != c.want {
			t.Errorf("%s: Allows = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestJurisdiction_IsBlocked(t *testing.T) {
	j := NewJurisdiction(DefaultBlocked())
	for _, c := range []string{"RU", "ru", " Ru ", "Russia", "RUSSIA", "russian federation"} {
		if !j.IsBlocked(c) {
			t.Errorf("IsBlocked(%q) = false", c)
		}
	}
	for _, c := range []string{"", "Latvia", "RUS", "Belarus"} {
		if j.IsBlocked(c) {
			t.Errorf("IsBlocked(%q) = true", c)
		}
	}
}

func TestJurisdiction_Allows(t *testing.T) {
	j := NewJurisdiction(DefaultBlocked())
	if j.Allows(&showroom.Showroom{Country: "russia"}) {
		t.Error("blocked record allowed")
	}
	if !j.Allows(&showroom.Showroom{Country: "Latvia"}) {
		t.Error("unblocked record rejected")
	}
}

func TestJurisdiction_Variants(t *testing.T) {
	j := NewJurisdiction(DefaultBlocked())
	got := j.Variants()
	want := []string{
		"RU", "ru",
		"Russia", "russia", "RUSSIA",
		"Russian Federation", "russian federation", "RUSSIAN FEDERATION",
	}
	if len(got) != len(want) {
		t.Fatalf("Variants = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variant %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// Off-list casings and padded values are blocked in listings but are not
// count-correction variants.
func TestJurisdiction_VariantsCoverOnlyKnownCasings(t *testing.T) {
	j := NewJurisdiction(DefaultBlocked())
	variants := make(map[string]bool)
	for _, v := range j.Variants() {
		variants[v] = true
	}
	for _, stored := range []string{"Ru", "ru ", " Russia"} {
		if !j.IsBlocked(stored) {
			t.Errorf("IsBlocked(%q) = false", stored)
		}
		if variants[stored] {
			t.Errorf("%q unexpectedly listed as a count variant", stored)
		}
	}
}

func TestJurisdiction_CanSkipCorrection(t *testing.T) {
	j := NewJurisdiction(DefaultBlocked())
	if j.CanSkipCorrection("") {
		t.Error("no country filter must not skip")
	}
	if j.CanSkipCorrection("RU") {
		t.Error("blocked country filter must not skip")
	}
	if !j.CanSkipCorrection("Latvia") {
		t.Error("unblocked country filter should skip")
	}
}
