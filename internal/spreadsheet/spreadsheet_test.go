package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRows(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Sheet{
		Name:    "Workers",
		Headers: []string{"Full Name", "Residency Number", "Salary"},
		Rows: [][]any{
			{"Amina Yusuf", "2456789012", 1500.5},
			{"Grace Njeri", "2456789013", 1400},
		},
	})
	require.NoError(t, err)

	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Full Name", "Residency Number", "Salary"}, rows[0])
	assert.Equal(t, "Amina Yusuf", rows[1][0])
	assert.Equal(t, "1500.5", rows[1][2])
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	_, err := ReadRows(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestHeaderIndex(t *testing.T) {
	idx := HeaderIndex([]string{" Full Name ", "residency-number", "", "full name"})
	assert.Equal(t, 0, idx["full_name"])
	assert.Equal(t, 1, idx["residency_number"])
	assert.NotContains(t, idx, "")
	assert.Equal(t, "", Cell([]string{"a"}, 3))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("05/03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())

	got, err = ParseDate("45356")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("soon")
	assert.Error(t, err)
}
