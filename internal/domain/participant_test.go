package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParticipant() Participant {
	return Participant{
		PID:                 "P0001",
		Name:                "Amar Hodzic",
		Gender:              GenderMale,
		Grade:               GradeNormal,
		RepresentingCountry: "C027",
		DOB:                 NewDate(1988, time.June, 2),
		POB:                 "Mostar",
		BirthCountry:        "C027",
		Citizenships:        []string{"C027"},
		TravelDocType:       DocPassport,
		TravelDocIssueDate:  NewDate(2020, time.January, 15),
		TravelDocExpiryDate: NewDate(2030, time.January, 14),
		TravelDocIssuedBy:   "C027",
		Transportation:      TransportAirplane,
		TravellingFrom:      "Sarajevo",
		ReturningTo:         "Sarajevo",
	}
}

func TestParticipantValidate(t *testing.T) {
	require.NoError(t, validParticipant().Validate())

	t.Run("no citizenships", func(t *testing.T) {
		p := validParticipant()
		p.Citizenships = nil
		assert.Error(t, p.Validate())
	})

	t.Run("expiry before issue", func(t *testing.T) {
		p := validParticipant()
		p.TravelDocExpiryDate = NewDate(2019, time.December, 31)
		assert.Error(t, p.Validate())
	})

	t.Run("other transport needs description", func(t *testing.T) {
		p := validParticipant()
		p.Transportation = TransportOther
		assert.Error(t, p.Validate())

		p.TransportOther = "Train"
		assert.NoError(t, p.Validate())
	})

	t.Run("unknown gender", func(t *testing.T) {
		p := validParticipant()
		p.Gender = "N/A"
		assert.Error(t, p.Validate())
	})

	t.Run("grade out of range", func(t *testing.T) {
		p := validParticipant()
		p.Grade = 7
		assert.Error(t, p.Validate())
	})
}

func TestSnapshotFrom(t *testing.T) {
	p := validParticipant()
	snap := SnapshotFrom("E0001", p, RoleInstructor)

	require.NoError(t, snap.Validate())
	assert.Equal(t, "E0001", snap.EventID)
	assert.Equal(t, p.PID, snap.ParticipantID)
	assert.Equal(t, RoleInstructor, snap.Role)
	assert.Equal(t, p.Transportation, snap.Transportation)
	assert.Equal(t, p.TravelDocIssuedBy, snap.TravelDocIssuedBy)
}
