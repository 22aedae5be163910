package visibility

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// BlockedCountry is one excluded jurisdiction with every name it may be stored under.
type BlockedCountry struct {
	Code  string
	Names []string
}

// DefaultBlocked is the blocklist used when none is configured.
func DefaultBlocked() []BlockedCountry {
	return []BlockedCountry{{Code: "RU", Names: []string{"Russia", "Russian Federation"}}}
}

// Jurisdiction excludes records of blocked countries from every read.
type Jurisdiction struct {
	blocked []BlockedCountry
	folded  map[string]struct{}
}

// NewJurisdiction builds the policy from a blocklist.
func NewJurisdiction(blocked []BlockedCountry) *Jurisdiction {
	j := &Jurisdiction{blocked: blocked, folded: make(map[string]struct{})}
	for _, b := range blocked {
		if k := fold(b.Code); k != "" {
			j.folded[k] = struct{}{}
		}
		for _, n := range b.Names {
			if k := fold(n); k != "" {
				j.folded[k] = struct{}{}
			}
		}
	}
	return j
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// IsBlocked matches country against codes and names case-insensitively.
func (j *Jurisdiction) IsBlocked(country string) bool {
	k := fold(country)
	if k == "" {
		return false
	}
	_, ok := j.folded[k]
	return ok
}

// Allows reports whether the record is outside every blocked jurisdiction.
func (j *Jurisdiction) Allows(s *showroom.Showroom) bool {
	return !j.IsBlocked(s.Country)
}

// Variants lists the spellings blocked countries are known to be stored under:
// each code upper and lower case, each name as configured, lower, upper and title case.
func (j *Jurisdiction) Variants() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	title := cases.Title(language.Und)
	for _, b := range j.blocked {
		add(strings.ToUpper(b.Code))
		add(strings.ToLower(b.Code))
		for _, n := range b.Names {
			add(n)
			add(strings.ToLower(n))
			add(strings.ToUpper(n))
			add(title.String(n))
		}
	}
	return out
}

// CanSkipCorrection reports whether a count filtered to country cannot
// intersect a blocked jurisdiction.
func (j *Jurisdiction) CanSkipCorrection(country string) bool {
	return strings.TrimSpace(country) != "" && !j.IsBlocked(country)
}
