// Package loader streams the places and people CSV files into the store, one
// insert per row. Places must load first: their generated ids are captured in
// a PlaceIndex that the people load uses to resolve each place_of_birth city
// without querying the database again. The index is an explicit value passed
// between the two steps, never package state.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"census/internal/config"
	"census/internal/model"
	"census/internal/store"
)

// Options configures CSV parsing for both loads. The zero value is not
// useful; build one with FromConfig or fill the fields explicitly.
type Options struct {
	// Comma is the field delimiter.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// FoldHeaders folds diacritics and case in header names so localized
	// headers still match the canonical column names.
	FoldHeaders bool

	// HeaderMap maps source header names to canonical column names before
	// folding, e.g. {"Město": "city"}.
	HeaderMap map[string]string

	// SkipDuplicateRows drops byte-identical repeats of earlier data rows
	// instead of inserting them twice. Off by default: normally every row is
	// inserted as-is.
	SkipDuplicateRows bool
}

// FromConfig builds Options from the free-form ingest options bag.
func FromConfig(o config.Options) Options {
	return Options{
		Comma:             o.Rune("comma", ','),
		TrimSpace:         o.Bool("trim_space", true),
		FoldHeaders:       o.Bool("fold_headers", true),
		HeaderMap:         o.StringMap("header_map"),
		SkipDuplicateRows: o.Bool("skip_duplicate_rows", false),
	}
}

// PlaceIndex maps a city name to the generated id of its places row. It lives
// only for the duration of one run.
type PlaceIndex map[string]int64

// IngestError reports that a CSV file could not be opened or parsed.
type IngestError struct {
	Path string
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// ReferenceError reports a person row naming a city that was never loaded as
// a place. It halts the people load; remaining rows are not attempted.
type ReferenceError struct {
	City string
	Line int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("line %d: place %q was never loaded", e.Line, e.City)
}

// LoadPlaces reads the places CSV (header: city,county,country), inserts one
// Place per row through ins, and returns the city→id index for the people
// load plus the number of rows inserted. Repeated city names each insert a
// row, but the index keeps only the latest id, so the count can exceed the
// index size. On an insert failure, rows inserted earlier stay committed
// unless ins is a transaction.
func LoadPlaces(ctx context.Context, path string, ins store.Inserter, opt Options) (PlaceIndex, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &IngestError{Path: path, Err: err}
	}
	defer f.Close()

	r := newReader(f, opt)
	cols, err := readHeader(r, opt, path, "city", "county", "country")
	if err != nil {
		return nil, 0, err
	}

	index := make(PlaceIndex)
	guard := newDupeGuard(opt.SkipDuplicateRows)
	line := 1 // header is line 1
	inserted := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, inserted, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, inserted, &IngestError{Path: path, Err: err}
		}
		line++
		if guard.duplicate(rec) {
			continue
		}

		p := model.Place{
			City:    field(rec, cols["city"], opt),
			County:  field(rec, cols["county"], opt),
			Country: field(rec, cols["country"], opt),
		}
		id, err := ins.InsertPlace(ctx, p)
		if err != nil {
			return nil, inserted, fmt.Errorf("line %d: %w", line, err)
		}
		index[p.City] = id
		inserted++
	}

	guard.report(path)
	log.Printf("loaded %d places from %s", inserted, path)
	return index, inserted, nil
}

// LoadPeople reads the people CSV (header: given_name,family_name,
// date_of_birth,place_of_birth) and inserts one Person per row, resolving
// place_of_birth through index only. A city missing from the index is a
// *ReferenceError and a hard stop. Returns the number of rows inserted.
func LoadPeople(ctx context.Context, path string, index PlaceIndex, ins store.Inserter, opt Options) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &IngestError{Path: path, Err: err}
	}
	defer f.Close()

	r := newReader(f, opt)
	cols, err := readHeader(r, opt, path, "given_name", "family_name", "date_of_birth", "place_of_birth")
	if err != nil {
		return 0, err
	}

	guard := newDupeGuard(opt.SkipDuplicateRows)
	line := 1
	inserted := 0

	for {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, &IngestError{Path: path, Err: err}
		}
		line++
		if guard.duplicate(rec) {
			continue
		}

		city := field(rec, cols["place_of_birth"], opt)
		placeID, ok := index[city]
		if !ok {
			return inserted, &ReferenceError{City: city, Line: line}
		}

		p := model.Person{
			GivenName:      field(rec, cols["given_name"], opt),
			FamilyName:     field(rec, cols["family_name"], opt),
			DateOfBirth:    field(rec, cols["date_of_birth"], opt),
			PlaceOfBirthID: placeID,
		}
		if err := ins.InsertPerson(ctx, p); err != nil {
			return inserted, fmt.Errorf("line %d: %w", line, err)
		}
		inserted++
	}

	guard.report(path)
	log.Printf("loaded %d people from %s", inserted, path)
	return inserted, nil
}

// newReader builds a csv.Reader in the lenient configuration used across the
// pipeline: variable field counts are tolerated, missing columns surface as
// empty values via field().
func newReader(f io.Reader, opt Options) *csv.Reader {
	r := csv.NewReader(f)
	if opt.Comma != 0 {
		r.Comma = opt.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = opt.TrimSpace
	return r
}

// readHeader reads the header line and maps the required canonical column
// names to their positions. A missing required column is an ingest failure.
func readHeader(r *csv.Reader, opt Options, path string, required ...string) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, &IngestError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}

	cols := make(map[string]int, len(header))
	for i, raw := range header {
		cols[canonicalHeader(raw, opt)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, &IngestError{Path: path, Err: fmt.Errorf("missing column %q in header", name)}
		}
	}
	return cols, nil
}

// field returns the i-th value of rec, trimmed per options; out-of-range
// indexes yield the empty string so short rows do not panic.
func field(rec []string, i int, opt Options) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	v := rec[i]
	if opt.TrimSpace {
		v = trimASCIISpace(v)
	}
	return v
}
