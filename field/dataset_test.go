package field

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.csv")

	in := []Sample{
		testSample("ap-north", -52.25, 1.5, 2.5),
		testSample("ap-south", -78.5, 18.125, 9.0),
	}
	in[1].Channel = 11
	in[1].Security = ""

	require.NoError(t, SaveSamples(path, in))

	out, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].APID, out[i].APID)
		assert.InDelta(t, in[i].RSSI, out[i].RSSI, 0.01)
		assert.InDelta(t, in[i].X, out[i].X, 0.001)
		assert.InDelta(t, in[i].Y, out[i].Y, 0.001)
		assert.True(t, in[i].Timestamp.Equal(out[i].Timestamp))
		assert.Equal(t, in[i].Channel, out[i].Channel)
		assert.Equal(t, in[i].Security, out[i].Security)
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSamplesMissingColumn(t *testing.T) {
	path := writeCSV(t, "ap_id,rssi,x,y\nap-north,-50,1,2\n")

	_, err := LoadSamples(path)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "timestamp", schemaErr.Field)
}

func TestLoadSamplesMalformedRow(t *testing.T) {
	path := writeCSV(t,
		"ap_id,rssi,x,y,timestamp,channel,security\n"+
			"ap-north,not-a-number,1,2,2024-03-15T14:30:00Z,6,wpa2\n")

	_, err := LoadSamples(path)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "rssi", schemaErr.Field)
	assert.Equal(t, 0, schemaErr.Index)
}

func TestLoadSamplesUnixTimestamp(t *testing.T) {
	path := writeCSV(t,
		"ap_id,rssi,x,y,timestamp,channel,security\n"+
			"ap-north,-50,1,2,1710513000,6,wpa2\n"+
			"ap-north,-51,1,2,1710513000.5,6,wpa2\n")

	out, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Timestamp.Equal(time.Unix(1710513000, 0)))
	assert.True(t, out[1].Timestamp.Equal(time.Unix(1710513000, 500000000)))
}

func TestLoadSamplesOptionalColumns(t *testing.T) {
	// channel and security are optional.
	path := writeCSV(t,
		"ap_id,rssi,x,y,timestamp\n"+
			"ap-north,-50,1,2,2024-03-15T14:30:00Z\n")

	out, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Zero(t, out[0].Channel)
	assert.Empty(t, out[0].Security)
}

func TestLoadSamplesEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := LoadSamples(path)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
}

func TestValidateSamplesCountsExclusions(t *testing.T) {
	mm := testMaterialMap(t)

	samples := []Sample{
		testSample("ap-north", -50, 5, 5),     // fine
		testSample("ap-north", -150, 5, 5),    // RSSI below physical floor
		testSample("ap-north", 10, 5, 5),      // RSSI above ceiling
		testSample("ap-north", -50, 25, 5),    // outside footprint
		testSample("ap-south", -60, 19.5, 9.5), // fine, near corner
	}

	kept, report := ValidateSamples(samples, mm)
	assert.Len(t, kept, 2)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 2, report.RSSIOutOfSpec)
	assert.Equal(t, 1, report.OutOfBounds)
}

func TestValidateSamplesNilMap(t *testing.T) {
	samples := []Sample{testSample("ap-north", -50, 500, 500)}
	kept, report := ValidateSamples(samples, nil)
	assert.Len(t, kept, 1, "without geometry only the RSSI range applies")
	assert.Zero(t, report.OutOfBounds)
}
