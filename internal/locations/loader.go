// Package locations loads the stops of a round trip from a delimited file.
//
// Records carry an external id in 1..N; id 1 is the depot. Internally the
// record with id k becomes node k-1, so the depot is always node 0.
package locations

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"tour-planner/internal/models"
)

// DepotID is the external id of the start and end of every tour
const DepotID = 1

const columns = 8

// Column order of the input file, after one header row.
const (
	colID = iota
	colName
	colStreet
	colHouseNumber
	colZipCode
	colCity
	colLat
	colLng
)

// Options controls parsing
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// AllowMissingCoordinates accepts records whose latitude and longitude
	// are both empty so they can be geocoded later.
	AllowMissingCoordinates bool
}

// Load reads and validates the location file at path
func Load(path string, opts Options) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	set, err := Parse(f, opts)
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		ioErr.Path = path
	}
	return set, err
}

// Parse reads location records from r. The first row is a header and is skipped.
func Parse(r io.Reader, opts Options) (*Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, &ConfigError{Reason: "input is empty"}
		}
		return nil, readError(err)
	}

	var locs []models.Location
	var missing []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line, _ := reader.FieldPos(0)

		loc, hasCoords, err := parseRecord(record, line, opts.AllowMissingCoordinates)
		if err != nil {
			return nil, err
		}
		if !hasCoords {
			missing = append(missing, loc.ID)
		}
		locs = append(locs, loc)
	}

	return NewSetWithMissing(locs, missing)
}

func readError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Field: "record", Err: perr.Err}
	}
	return &IOError{Err: err}
}

func parseRecord(record []string, line int, allowMissing bool) (models.Location, bool, error) {
	if len(record) != columns {
		return models.Location{}, false, &ParseError{
			Line:  line,
			Field: "record",
			Err:   fmt.Errorf("got %d fields, want %d", len(record), columns),
		}
	}

	rawID := strings.TrimSpace(record[colID])
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return models.Location{}, false, &ParseError{Line: line, ID: rawID, Field: "id", Err: err}
	}

	loc := models.Location{
		ID:          id,
		Name:        strings.TrimSpace(record[colName]),
		Street:      strings.TrimSpace(record[colStreet]),
		HouseNumber: strings.TrimSpace(record[colHouseNumber]),
		ZipCode:     strings.TrimSpace(record[colZipCode]),
		City:        strings.TrimSpace(record[colCity]),
	}

	rawLat := strings.TrimSpace(record[colLat])
	rawLng := strings.TrimSpace(record[colLng])
	if rawLat == "" && rawLng == "" && allowMissing {
		return loc, false, nil
	}

	if loc.Lat, err = parseCoordinate(rawLat, 90); err != nil {
		return models.Location{}, false, &ParseError{Line: line, ID: rawID, Field: "latitude", Err: err}
	}
	if loc.Lng, err = parseCoordinate(rawLng, 180); err != nil {
		return models.Location{}, false, &ParseError{Line: line, ID: rawID, Field: "longitude", Err: err}
	}
	return loc, true, nil
}

func parseCoordinate(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrNonFiniteCoordinate, raw)
		}
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, fmt.Errorf("%w: %q", ErrNonFiniteCoordinate, raw)
	}
	return v, nil
}
