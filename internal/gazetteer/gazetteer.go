// Package gazetteer resolves Philippine place names to the island groups
// PAGASA bulletins tag warnings by. The index is built once at startup from
// the consolidated PSGC location table and is immutable afterwards, so a
// single instance can be shared across goroutines without locking.
package gazetteer

import (
	"sort"
	"strings"
)

// IslandGroup is the coarse geographic bucket a place name resolves to.
type IslandGroup string

const (
	Luzon    IslandGroup = "Luzon"
	Visayas  IslandGroup = "Visayas"
	Mindanao IslandGroup = "Mindanao"

	// Other collects names that resolve to nothing. Ambiguous locations
	// stay visible under Other instead of being dropped.
	Other IslandGroup = "Other"

	// Unknown marks a lookup miss. It never appears in assembled records;
	// callers rewrite it to Other.
	Unknown IslandGroup = "Unknown"
)

// AdminType is the administrative level of a gazetteer entry.
type AdminType string

const (
	Region       AdminType = "Region"
	Province     AdminType = "Province"
	City         AdminType = "City"
	Municipality AdminType = "Municipality"
	Barangay     AdminType = "Barangay"
)

// adminPriority orders entries that share a name. Provinces outrank every
// other level so that a name like "Pilar", which is both a province and
// several municipalities, resolves to the unit bulletins mean by it.
var adminPriority = map[AdminType]int{
	Province:     5,
	Region:       4,
	City:         3,
	Municipality: 2,
	Barangay:     1,
}

// Entry is one row of the consolidated gazetteer.
type Entry struct {
	Name       string
	Type       AdminType
	Code       string
	ParentCode string
	Island     IslandGroup
}

// Index resolves place names to island groups. Immutable after Build.
type Index struct {
	byName map[string]Entry
	names  []string // lowercased keys in sorted order, fixed scan order for substring matches
}

// Build constructs an Index. Entries sharing a name are deduplicated by
// admin priority; on equal priority the first entry wins.
func Build(entries []Entry) *Index {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" {
			continue
		}
		cur, ok := byName[key]
		if !ok || adminPriority[e.Type] > adminPriority[cur.Type] {
			byName[key] = e
		}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Index{byName: byName, names: names}
}

// Len reports the number of distinct names in the index.
func (ix *Index) Len() int { return len(ix.byName) }

// Entries returns the deduplicated entries in name order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.names))
	for _, name := range ix.names {
		out = append(out, ix.byName[name])
	}
	return out
}

// minSubstringLen keeps the substring pass from firing on fragments like
// "san" or "sur" that occur inside half the gazetteer.
const minSubstringLen = 4

// Lookup resolves a place name to its island group. The cascade is exact
// match, then substring match in either direction over the known names,
// then the static region alias table. A miss returns Unknown; Lookup never
// fails and repeated calls with the same name return the same group.
func (ix *Index) Lookup(name string) IslandGroup {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Unknown
	}
	if e, ok := ix.byName[key]; ok {
		return e.Island
	}
	// Prefer the longest matching known name: it ties the input to the most
	// specific administrative unit and keeps short names like "La Union"
	// from being claimed by a fragment.
	best := ""
	for _, known := range ix.names {
		if len(known) < minSubstringLen || len(known) <= len(best) {
			continue
		}
		if strings.Contains(known, key) || strings.Contains(key, known) {
			best = known
		}
	}
	if best != "" {
		return ix.byName[best].Island
	}
	return lookupRegionAlias(key)
}

// regionAliases maps region names the way bulletins write them. Bulletins
// frequently tag whole regions ("CALABARZON", "Bicol Region") under names
// the PSGC table does not carry verbatim. Order matters: longer names sit
// above the acronyms they contain ("Caraga" before "CAR") so substring
// matching stays deterministic.
var regionAliases = []struct {
	name  string
	group IslandGroup
}{
	{"ilocos region", Luzon},
	{"cagayan valley", Luzon},
	{"central luzon", Luzon},
	{"calabarzon", Luzon},
	{"mimaropa", Luzon},
	{"bicol region", Luzon},
	{"western visayas", Visayas},
	{"central visayas", Visayas},
	{"eastern visayas", Visayas},
	{"zamboanga peninsula", Mindanao},
	{"northern mindanao", Mindanao},
	{"davao region", Mindanao},
	{"soccsksargen", Mindanao},
	{"caraga", Mindanao},
	{"bangsamoro", Mindanao},
	{"barmm", Mindanao},
	{"national capital region", Luzon},
	{"ncr", Luzon},
	{"cordillera administrative region", Luzon},
	{"car", Luzon},
}

// lookupRegionAlias checks the alias table, exact name first and then by
// substring in either direction.
func lookupRegionAlias(key string) IslandGroup {
	for _, a := range regionAliases {
		if a.name == key {
			return a.group
		}
	}
	for _, a := range regionAliases {
		if strings.Contains(key, a.name) || strings.Contains(a.name, key) {
			return a.group
		}
	}
	return Unknown
}
