package field

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// csvHeader is the canonical column order for survey datasets.
var csvHeader = []string{"ap_id", "rssi", "x", "y", "timestamp", "channel", "security"}

// LoadSamples reads a survey dataset from CSV. The header row is required.
// Malformed rows are a schema problem and fail the whole batch; range checks
// (RSSI bounds, footprint containment) happen later in ValidateSamples so
// exclusions can be counted instead of aborting.
func LoadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, &SchemaError{Index: 0, Field: "header", Reason: "empty file"}
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"ap_id", "rssi", "x", "y", "timestamp"} {
		if _, ok := col[required]; !ok {
			return nil, &SchemaError{Index: 0, Field: required, Reason: "missing column"}
		}
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseRecord(rec, col, i)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseRecord(rec []string, col map[string]int, index int) (Sample, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var s Sample
	s.APID = get("ap_id")
	if s.APID == "" {
		return s, &SchemaError{Index: index, Field: "ap_id", Reason: "missing"}
	}

	var err error
	if s.RSSI, err = strconv.ParseFloat(get("rssi"), 64); err != nil {
		return s, &SchemaError{Index: index, Field: "rssi", Reason: err.Error()}
	}
	if s.X, err = strconv.ParseFloat(get("x"), 64); err != nil {
		return s, &SchemaError{Index: index, Field: "x", Reason: err.Error()}
	}
	if s.Y, err = strconv.ParseFloat(get("y"), 64); err != nil {
		return s, &SchemaError{Index: index, Field: "y", Reason: err.Error()}
	}

	s.Timestamp, err = parseTimestamp(get("timestamp"))
	if err != nil {
		return s, &SchemaError{Index: index, Field: "timestamp", Reason: err.Error()}
	}

	if ch := get("channel"); ch != "" {
		if s.Channel, err = strconv.Atoi(ch); err != nil {
			return s, &SchemaError{Index: index, Field: "channel", Reason: err.Error()}
		}
	}
	s.Security = get("security")
	return s, nil
}

// parseTimestamp accepts RFC3339 or a unix epoch (integer or fractional
// seconds, the format older survey tools wrote).
func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("missing")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if epoch, err := strconv.ParseFloat(v, 64); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

// SaveSamples writes a survey dataset as CSV with the canonical header.
func SaveSamples(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, s := range samples {
		rec := []string{
			s.APID,
			strconv.FormatFloat(s.RSSI, 'f', 2, 64),
			strconv.FormatFloat(s.X, 'f', 3, 64),
			strconv.FormatFloat(s.Y, 'f', 3, 64),
			s.Timestamp.UTC().Format(time.RFC3339),
			strconv.Itoa(s.Channel),
			s.Security,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ValidationReport counts the samples excluded from a batch and why.
// Nothing is dropped silently: callers surface these counts in run
// artifacts and logs.
type ValidationReport struct {
	Total         int `json:"total"`
	Kept          int `json:"kept"`
	OutOfBounds   int `json:"outOfBounds"`
	RSSIOutOfSpec int `json:"rssiOutOfSpec"`
}

// ValidateSamples applies the physical range checks: RSSI within
// [MinRSSI, MaxRSSI] and coordinates inside the building footprint. It
// returns the surviving samples and the exclusion counts.
func ValidateSamples(samples []Sample, mm *MaterialMap) ([]Sample, ValidationReport) {
	report := ValidationReport{Total: len(samples)}
	kept := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.RSSI < MinRSSI || s.RSSI > MaxRSSI {
			report.RSSIOutOfSpec++
			continue
		}
		if mm != nil && !mm.Contains(s.X, s.Y) {
			report.OutOfBounds++
			continue
		}
		kept = append(kept, s)
	}
	report.Kept = len(kept)
	return kept, report
}
