package locations

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/models"
)

const sampleCSV = `Nummer,msg Standort,Straße,Hausnummer,PLZ,Ort,Breitengrad,Längengrad
1,Ismaning/München (Hauptsitz),Robert-Bürkle-Straße,1,85737,Ismaning,48.229035,11.686153
2,Berlin,Wittestraße,30,13509,Berlin,52.580911,13.293884
3,Braunschweig,Frankfurter Str.,251,38122,Braunschweig,52.2477041,10.5026617
`

func TestParse(t *testing.T) {
	set, err := Parse(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, "Ismaning/München (Hauptsitz)", set.Depot().Name)

	berlin, ok := set.ByID(2)
	require.True(t, ok)
	assert.Equal(t, "Wittestraße", berlin.Street)
	assert.Equal(t, "30", berlin.HouseNumber)
	assert.Equal(t, "13509", berlin.ZipCode)
	assert.Equal(t, 52.580911, berlin.Lat)
	assert.Equal(t, 13.293884, berlin.Lng)

	assert.Equal(t, berlin, set.AtNode(1))
	assert.Equal(t, 2, NodeID(1))

	_, ok = set.ByID(4)
	assert.False(t, ok)
}

func TestParseUnorderedIDs(t *testing.T) {
	input := `header,,,,,,,
3,C,s,1,z,c,1.0,1.0
1,A,s,1,z,c,0.0,0.0
2,B,s,1,z,c,2.0,2.0
`
	set, err := Parse(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, []models.Coordinates{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 2}, {Lat: 1, Lng: 1}}, set.Coordinates())
}

func TestParseSemicolonDelimiter(t *testing.T) {
	input := "h;h;h;h;h;h;h;h\n1;A;s;1;z;c;0.5;0.5\n2;B;s;1;z;c;1.5;1.5\n"
	set, err := Parse(strings.NewReader(input), Options{Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestParseErrors(t *testing.T) {
	const header = "h,h,h,h,h,h,h,h\n"

	tests := []struct {
		name  string
		input string
		field string
		line  int
		id    string
	}{
		{name: "bad id", input: header + "1,A,s,1,z,c,0,0\nx,B,s,1,z,c,0,0\n", field: "id", line: 3, id: "x"},
		{name: "bad latitude", input: header + "1,A,s,1,z,c,north,0\n2,B,s,1,z,c,0,0\n", field: "latitude", line: 2, id: "1"},
		{name: "bad longitude", input: header + "1,A,s,1,z,c,0,0\n2,B,s,1,z,c,0,east\n", field: "longitude", line: 3, id: "2"},
		{name: "short record", input: header + "1,A,s,1,z,c,0\n", field: "record", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), Options{})

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.id, perr.ID)
		})
	}
}

func TestParseNonFiniteCoordinates(t *testing.T) {
	const header = "h,h,h,h,h,h,h,h\n"

	for _, raw := range []string{"NaN", "Inf", "-Inf", "1e400", "91"} {
		t.Run(raw, func(t *testing.T) {
			input := header + "1,A,s,1,z,c," + raw + ",0\n2,B,s,1,z,c,0,0\n"
			_, err := Parse(strings.NewReader(input), Options{})

			assert.ErrorIs(t, err, ErrNonFiniteCoordinate)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	const header = "h,h,h,h,h,h,h,h\n"

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "header only", input: header},
		{name: "depot only", input: header + "1,A,s,1,z,c,0,0\n"},
		{name: "no depot", input: header + "2,A,s,1,z,c,0,0\n3,B,s,1,z,c,0,0\n"},
		{name: "two depots", input: header + "1,A,s,1,z,c,0,0\n1,B,s,1,z,c,0,0\n"},
		{name: "duplicate id", input: header + "1,A,s,1,z,c,0,0\n2,B,s,1,z,c,0,0\n2,C,s,1,z,c,0,0\n"},
		{name: "gap", input: header + "1,A,s,1,z,c,0,0\n3,B,s,1,z,c,0,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), Options{})

			var cerr *ConfigError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestParseMissingCoordinates(t *testing.T) {
	input := "h,h,h,h,h,h,h,h\n1,A,Hauptstraße,1,10115,Berlin,,\n2,B,s,1,z,c,1,1\n"

	_, err := Parse(strings.NewReader(input), Options{})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "latitude", perr.Field)

	set, err := Parse(strings.NewReader(input), Options{AllowMissingCoordinates: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, set.MissingCoordinates())

	require.NoError(t, set.SetCoordinates(1, models.Coordinates{Lat: 52.5, Lng: 13.4}))
	assert.Empty(t, set.MissingCoordinates())
	assert.Equal(t, 52.5, set.Depot().Lat)

	assert.Error(t, set.SetCoordinates(9, models.Coordinates{}))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0600))

	set, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(path, Options{})

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, path, ioErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSetRejectsNonFinite(t *testing.T) {
	_, err := NewSet([]models.Location{{ID: 1, Lat: math.NaN()}, {ID: 2}})
	assert.ErrorIs(t, err, ErrNonFiniteCoordinate)
}

func TestNewSetWithMissing(t *testing.T) {
	locs := []models.Location{{ID: 1, Lat: 48.1, Lng: 11.6}, {ID: 2, Street: "Wittestraße", City: "Berlin"}}

	set, err := NewSetWithMissing(locs, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, set.MissingCoordinates())

	var cerr *ConfigError
	_, err = NewSetWithMissing(locs, []int{7})
	assert.ErrorAs(t, err, &cerr)
}
