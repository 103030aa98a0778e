package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+56 9 1234 5678", want: "+56912345678"},
		{in: "56912345678", want: "+56912345678"},
		{in: "912345678", want: "+56912345678"},
		{in: "12345678", want: "+56912345678"},
		{in: "5215512345678", want: "+5215512345678"},
		{in: "+1 (415) 555-0100", want: "+14155550100"},
		{in: "1234", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitNameAndPhone(t *testing.T) {
	name, phone := SplitNameAndPhone("Juan +56 9 1234 5678")
	assert.Equal(t, "Juan", name)
	assert.Equal(t, "+56 9 1234 5678", phone)

	name, phone = SplitNameAndPhone("María José")
	assert.Equal(t, "María José", name)
	assert.Empty(t, phone)

	assert.True(t, IsPhoneLike("912345678"))
	assert.False(t, IsPhoneLike("Pedro 912345678"))
}

func TestNewContact(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	c, err := NewContact("t1", "  Juan ", "912345678", "", now)
	require.NoError(t, err)
	assert.Equal(t, "Juan", c.Name)
	assert.Equal(t, "+56912345678", c.PhoneE164)
	assert.Equal(t, OptInPending, c.OptInStatus)
	assert.True(t, c.Reachable())
	assert.False(t, c.OptedIn())

	_, err = NewContact("t1", "J", "", "", now)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewContact("t1", "Juan", "12", "", now)
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestCrossTenantAndLocation(t *testing.T) {
	c := Contact{TenantID: "t1", OwnerTenantID: "t2"}
	assert.True(t, c.CrossTenant())
	c.OwnerTenantID = "t1"
	assert.False(t, c.CrossTenant())

	tenant := Tenant{Timezone: "America/Santiago"}
	assert.Equal(t, "America/Santiago", tenant.Location(nil).String())
	assert.Equal(t, time.UTC, Tenant{Timezone: "Nope/Nope"}.Location(nil))
}
