package sheetmap

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberCodec(t *testing.T, onlyAlias bool) *Codec[member] {
	s := memberSchema(t)
	return NewCodec(s, ResolveHeader(s.Columns(), onlyAlias))
}

func toStrings(cells []Cell) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.Value == nil {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(c.Value))
	}
	return out
}

func TestEncodeOrder(t *testing.T) {
	c := memberCodec(t, false)
	m := sampleMembers()[0]

	cells := c.Encode(&m)
	require.Len(t, cells, 7)
	for i, cell := range cells {
		assert.Equal(t, i, cell.Column)
	}
	assert.Equal(t, 1, cells[0].Value)
	assert.Equal(t, "alice@example.com", cells[2].Value)
	assert.Equal(t, 91.5, cells[3].Value)
	assert.Equal(t, true, cells[4].Value)
	assert.Equal(t, "2024-03-15 09:30:00", cells[5].Value)

	assert.Len(t, memberCodec(t, true).Encode(&m), 6)
}

func TestEncodeZeroTime(t *testing.T) {
	c := memberCodec(t, false)
	var m member
	assert.Nil(t, c.Encode(&m)[5].Value)
}

func TestDecodeRoundTrip(t *testing.T) {
	c := memberCodec(t, false)
	for i, m := range sampleMembers() {
		got, err := c.Decode(toStrings(c.Encode(&m)), i+2)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, m.Name, got.Name)
		assert.Equal(t, m.Email, got.Email)
		assert.Equal(t, m.Score, got.Score)
		assert.Equal(t, m.Active, got.Active)
		assert.True(t, m.Joined.Equal(got.Joined))
		assert.Equal(t, m.Note, got.Note)
	}
}

func TestDecodeCoercion(t *testing.T) {
	c := memberCodec(t, false)

	got, err := c.Decode([]string{" 12.0 ", "Ann", "ann@example.com", "1,250.5", "yes", "45366.5", ""}, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, got.ID)
	assert.Equal(t, 1250.5, got.Score)
	assert.True(t, got.Active)
	assert.WithinDuration(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), got.Joined, time.Second)

	got, err = c.Decode([]string{"3", "", "x@example.com", "", "0"}, 2)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.Joined.IsZero())
}

func TestDecodeKeepsStringPadding(t *testing.T) {
	c := memberCodec(t, false)
	m := member{ID: 4, Name: "  padded  ", Email: "pad@example.com", Note: " x"}

	got, err := c.Decode(toStrings(c.Encode(&m)), 2)
	require.NoError(t, err)
	assert.Equal(t, "  padded  ", got.Name)
	assert.Equal(t, " x", got.Note)
}

func TestDecodeMissingRequired(t *testing.T) {
	c := memberCodec(t, false)

	_, err := c.Decode([]string{"1", "Ann", "   "}, 4)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 4, verr.Row)
	assert.Equal(t, "Email", verr.Alias)
	assert.Contains(t, err.Error(), "row 4")
	assert.Contains(t, err.Error(), "Email")
}

func TestDecodeConversionErrors(t *testing.T) {
	c := memberCodec(t, false)

	_, err := c.Decode([]string{"1.5", "Ann", "", "lots", "maybe", "yesterday"}, 7)
	require.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 7, cerr.Row)
	assert.Equal(t, "ID", cerr.Alias)
	assert.Equal(t, "1.5", cerr.Value)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 5)

	row, ok := RowOf(joined.Unwrap()[1])
	assert.True(t, ok)
	assert.Equal(t, 7, row)
}

func TestDecodeMissingColumn(t *testing.T) {
	s := memberSchema(t)
	loc := MatchHeader(s.Columns(), false, []string{"ID", "Name"})
	c := NewCodec(s, loc)

	_, err := c.Decode([]string{"1", "Ann"}, 2)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "Email", verr.Alias)
}
