package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() Event {
	return Event{
		EID:         "E0001",
		Title:       "Regional CBRN Workshop",
		Location:    "Sarajevo",
		DateFrom:    NewDate(2025, time.March, 10),
		DateTo:      NewDate(2025, time.March, 14),
		HostCountry: "C027",
	}
}

func TestEventValidate(t *testing.T) {
	require.NoError(t, validEvent().Validate())

	t.Run("dates reversed", func(t *testing.T) {
		e := validEvent()
		e.DateFrom, e.DateTo = e.DateTo, e.DateFrom
		assert.Error(t, e.Validate())
	})

	t.Run("blank host country", func(t *testing.T) {
		e := validEvent()
		e.HostCountry = "  "
		assert.Error(t, e.Validate())
	})

	t.Run("single day event", func(t *testing.T) {
		e := validEvent()
		e.DateTo = e.DateFrom
		assert.NoError(t, e.Validate())
	})
}

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-11-05")
	require.NoError(t, err)

	raw, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-11-05"`, string(raw))

	var back Date
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, d.String(), back.String())

	var zero Date
	require.NoError(t, zero.UnmarshalJSON([]byte("null")))
	assert.True(t, zero.IsZero())
}
