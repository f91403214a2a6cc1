// Package report prints planned tours.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tour-planner/internal/models"
)

const rule = "---------------------------------------------------------"

// WriteText prints the tour in the long and short human readable forms
func WriteText(w io.Writer, result *models.TourResult) error {
	var b strings.Builder

	distance := formatKm(result.TotalKm)
	fmt.Fprintln(&b, "Solution:")
	fmt.Fprintf(&b, "Minimum possible distance is %s\n", distance)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "The distance can be achieved through the following path: ")

	short := make([]string, 0, len(result.Stops))
	for _, stop := range result.Stops {
		loc := stop.Location
		fmt.Fprintf(&b, "ID: %d\n  %s\n  %s\n  %s\n  %s\n  %s\n-----------------------\n",
			loc.ID, loc.Name, loc.Street, loc.HouseNumber, loc.ZipCode, loc.City)
		short = append(short, strconv.Itoa(loc.ID)+" "+loc.Name)
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Or in short: ")
	fmt.Fprintln(&b, strings.Join(short, " --> "))
	fmt.Fprintf(&b, "Minimum possible distance is %s\n", distance)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON prints the full result as indented JSON
func WriteJSON(w io.Writer, result *models.TourResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteRuns prints stored run summaries, newest first, one per line
func WriteRuns(w io.Writer, runs []models.TourRun, total int) error {
	var b strings.Builder
	for _, run := range runs {
		fmt.Fprintf(&b, "%s  %s  %2d nodes  %12s km  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Nodes, formatKm(run.TotalKm), run.Source)
	}
	fmt.Fprintf(&b, "%d of %d runs\n", len(runs), total)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteRun prints one stored run in detail
func WriteRun(w io.Writer, run *models.TourRun) error {
	ids := make([]string, len(run.Sequence))
	for i, id := range run.Sequence {
		ids[i] = strconv.Itoa(id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run:      %s\n", run.ID)
	fmt.Fprintf(&b, "Created:  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Source:   %s\n", run.Source)
	fmt.Fprintf(&b, "Nodes:    %d\n", run.Nodes)
	fmt.Fprintf(&b, "Distance: %s km\n", formatKm(run.TotalKm))
	fmt.Fprintf(&b, "Solved:   %d ms\n", run.ElapsedMs)
	fmt.Fprintf(&b, "Tour:     %s\n", strings.Join(ids, " --> "))
	_, err := io.WriteString(w, b.String())
	return err
}

// formatKm prints the shortest representation that round-trips
func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
