package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhoneKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PhoneKey
	}{
		{name: "e164", raw: "+14065551234", want: "14065551234"},
		{name: "formatted", raw: "+1 (406) 555-1234", want: "14065551234"},
		{name: "ten digits gain country code", raw: "406-555-1234", want: "14065551234"},
		{name: "spaces and dashes", raw: "1 406 555 1234", want: "14065551234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePhoneKey(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePhoneKey_Invalid(t *testing.T) {
	for _, raw := range []string{"", "anonymous", "+1 406"} {
		_, err := ParsePhoneKey(raw)
		assert.ErrorIs(t, err, ErrInvalidPhone, raw)
	}
}

func TestPhoneKeyFormats(t *testing.T) {
	key := PhoneKey("14065551234")
	assert.Equal(t, "+14065551234", key.E164())
	assert.Equal(t, "caller_14065551234", key.MemoryUserID())
	assert.Equal(t, "", PhoneKey("").E164())
}

func TestFormatE164(t *testing.T) {
	assert.Equal(t, "+14065550000", FormatE164("406-555-0000"))
	assert.Equal(t, "+14065550000", FormatE164("1 406 555 0000"))
	assert.Equal(t, "+442071234567", FormatE164(" +442071234567 "))
}

func TestCallerTurns(t *testing.T) {
	turns := []Turn{
		{Role: RoleAgent, Content: "Thanks for calling"},
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAgent, Content: "How can I help?"},
		{Role: "User", Content: "Feed prices"},
	}

	assert.Len(t, CallerTurns(turns, 0), 2)
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "Hi"}}, CallerTurns(turns, 3))
}
