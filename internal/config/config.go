// Package config defines the canonical, JSON-serializable configuration model
// for the census ETL commands. It is intentionally small and explicit so that
// a run can be described by one file on disk and passed through the program
// without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job":     "census",
//	  "storage": { "kind": "mysql", "dsn": "user:pw@tcp(database:3306)/db", "auto_create_tables": true },
//	  "connect": { "max_attempts": 10, "retry_delay_seconds": 5 },
//	  "ingest":  { "places_csv": "/data/places.csv", "people_csv": "/data/people.csv" },
//	  "output":  { "summary_json": "/data/output.json" }
//	}
package config

import "encoding/json"

// Config describes one full run. It is the top-level object decoded from a
// config file.
type Config struct {
	// Job is the logical job name used for metrics grouping and log prefixes.
	Job string `json:"job"`

	// Storage selects and configures the database backend.
	Storage Storage `json:"storage"`

	// Connect controls the bounded connection retry loop.
	Connect Connect `json:"connect"`

	// Ingest names the input CSV files and parser options.
	Ingest Ingest `json:"ingest"`

	// Output names the JSON artifacts written by the compute and dump commands.
	Output Output `json:"output"`
}

// Storage selects the database backend used to persist places and people.
type Storage struct {
	// Kind selects the backend implementation: "mysql" (default), "postgres",
	// "mssql", or "sqlite".
	Kind string `json:"kind"`

	// DSN is the backend-specific connection string, handed to the driver
	// unparsed.
	DSN string `json:"dsn"`

	// AutoCreateTables creates the places and people tables from the static
	// schema when they do not exist yet.
	AutoCreateTables bool `json:"auto_create_tables"`

	// PerFileTx wraps each CSV load in a single transaction, so a failing row
	// rolls back that whole file. When false (the default, matching the
	// original behavior) each row is its own unit and rows inserted before a
	// failure stay committed.
	PerFileTx bool `json:"per_file_tx"`
}

// Connect configures the fixed-delay connection retry loop.
type Connect struct {
	// MaxAttempts is the total number of connection attempts. Zero means the
	// default of 10.
	MaxAttempts int `json:"max_attempts"`

	// RetryDelaySeconds is the fixed pause between attempts. Zero means the
	// default of 5 seconds.
	RetryDelaySeconds int `json:"retry_delay_seconds"`
}

// Ingest names the CSV inputs. Both paths are required by the ingest and dump
// commands; the compute command ignores this section.
type Ingest struct {
	// PlacesCSV is the path of the places file (header: city,county,country).
	PlacesCSV string `json:"places_csv"`

	// PeopleCSV is the path of the people file (header:
	// given_name,family_name,date_of_birth,place_of_birth).
	PeopleCSV string `json:"people_csv"`

	// Options is a free-form bag interpreted by the CSV loader. Typical keys:
	//   comma (string), trim_space (bool), fold_headers (bool),
	//   skip_duplicate_rows (bool), header_map (object)
	Options Options `json:"options"`
}

// Output names the JSON files written on success. Missing parent directories
// are created; existing files are overwritten wholesale.
type Output struct {
	// SummaryJSON is the population-by-country summary path.
	SummaryJSON string `json:"summary_json"`

	// PlacesJSON / PeopleJSON are the raw table dump paths used by the dump
	// command. Empty values skip the corresponding dump.
	PlacesJSON string `json:"places_json"`
	PeopleJSON string `json:"people_json"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing a configuration library. It performs only minimal type
// coercion and returns the provided default when a key is absent or of an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as the CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so a missing or null "options"
// object decodes to a non-nil, empty Options map. This removes nil checks at
// call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
