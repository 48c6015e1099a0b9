package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone_LocalAndInternationalAgree(t *testing.T) {
	local, err := NormalizePhone("0781234567")
	require.NoError(t, err)
	intl, err := NormalizePhone("250781234567")
	require.NoError(t, err)

	assert.Equal(t, "250781234567", local)
	assert.Equal(t, local, intl)
}

func TestNormalizePhone_StripsSeparators(t *testing.T) {
	cases := []string{
		"078 123 4567",
		"078-123-4567",
		"(078) 123-4567",
		" 250 78 123 4567 ",
		"0781\t234567",
	}
	for _, in := range cases {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, "250781234567", got, in)
	}
}

func TestNormalizePhone_AcceptsAirtelPrefix(t *testing.T) {
	got, err := NormalizePhone("0791234567")
	require.NoError(t, err)
	assert.Equal(t, "250791234567", got)
}

func TestNormalizePhone_Rejects(t *testing.T) {
	cases := []string{
		"123",
		"",
		"0721234567",    // unsupported network
		"078123456",     // too short
		"07812345678",   // too long
		"+250781234567", // no plus
		"781234567",     // missing leading 0
		"0781234abc",
	}
	for _, in := range cases {
		_, err := NormalizePhone(in)
		require.Error(t, err, in)

		var pe *PhoneError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, in, pe.Input)
	}
}
