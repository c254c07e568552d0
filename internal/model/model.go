// Package model defines the records moved through the census pipeline and the
// fixed table shapes they map to. The two tables are known at build time, so
// their layout is declared here once instead of being reflected from the live
// database catalog.
package model

// Table and column names shared by the storage backends and the loaders.
const (
	PlacesTable = "places"
	PeopleTable = "people"
)

// PlacesColumns and PeopleColumns list the insertable columns in CSV order.
// The generated id column is excluded; the database populates it.
var (
	PlacesColumns = []string{"city", "county", "country"}
	PeopleColumns = []string{"given_name", "family_name", "date_of_birth", "place_of_birth_id"}
)

// Place is one row of the places table. Immutable once inserted; the pipeline
// never updates or deletes places.
type Place struct {
	ID      int64  `json:"id"`
	City    string `json:"city"`
	County  string `json:"county"`
	Country string `json:"country"`
}

// Person is one row of the people table. PlaceOfBirthID must reference an
// existing Place.ID; the loader guarantees this by loading places first and
// resolving cities through an in-memory index.
type Person struct {
	ID             int64  `json:"id"`
	GivenName      string `json:"given_name"`
	FamilyName     string `json:"family_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PlaceOfBirthID int64  `json:"place_of_birth_id"`
}

// CountryCount is one group of the population aggregate: how many people are
// linked to places in Country. Countries with no people never appear.
type CountryCount struct {
	Country string
	Count   int64
}

// SummaryMap converts aggregate groups to the country→count mapping that is
// serialized as the summary JSON. Map form gives deterministic (sorted-key)
// JSON output.
func SummaryMap(counts []CountryCount) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.Country] = c.Count
	}
	return out
}
