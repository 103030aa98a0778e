package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDate(t *testing.T) {
	today := Date{Year: 2025, Month: time.February, Day: 27}

	cases := []struct {
		input string
		want  Date
	}{
		{"mañana", Date{2025, time.February, 28}},
		{"Mañana!", Date{2025, time.February, 28}},
		{"tomorrow", Date{2025, time.February, 28}},
		{"pasado mañana", Date{2025, time.March, 1}},
		{"en una semana", Date{2025, time.March, 6}},
		{"in a week", Date{2025, time.March, 6}},
		{"en 5 días", Date{2025, time.March, 4}},
		{"fin de mes", Date{2025, time.February, 28}},
		{"próximo mes", Date{2025, time.March, 27}},
		{"15/03/2025", Date{2025, time.March, 15}},
		{"15-03-2025", Date{2025, time.March, 15}},
		{"15/03/25", Date{2025, time.March, 15}},
		{"2025-03-15", Date{2025, time.March, 15}},
		{"15/03", Date{2025, time.March, 15}},
		{"15 de marzo", Date{2025, time.March, 15}},
		{"1 de enero de 2026", Date{2026, time.January, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ResolveDate(tc.input, today)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDateRejects(t *testing.T) {
	today := Date{Year: 2025, Month: time.February, Day: 27}
	for _, input := range []string{
		"hoy",
		"27/02/2025",
		"01/01/2025",
		"2024-12-31",
		"31/02/2026",
		"32 de marzo",
		"15 de marzipan",
		"algún día",
		"en 0 dias",
		"",
	} {
		_, ok := ResolveDate(input, today)
		assert.False(t, ok, input)
	}
}

func TestAddMonthsClamps(t *testing.T) {
	assert.Equal(t, Date{2025, time.February, 28}, Date{2025, time.January, 31}.AddMonths(1))
	assert.Equal(t, Date{2024, time.February, 29}, Date{2024, time.January, 30}.AddMonths(1))
	assert.Equal(t, Date{2026, time.January, 15}, Date{2025, time.December, 15}.AddMonths(1))
}

func TestTomorrowIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("CLT", -3*3600)
	early := Turn{Now: time.Date(2025, time.March, 10, 0, 5, 0, 0, loc), Location: loc}
	late := Turn{Now: time.Date(2025, time.March, 10, 23, 55, 0, 0, loc), Location: loc}

	a, ok := ResolveDate("mañana", early.Today())
	require.True(t, ok)
	b, ok := ResolveDate("mañana", late.Today())
	require.True(t, ok)

	assert.Equal(t, Date{2025, time.March, 11}, a)
	assert.Equal(t, a, b)
}

func TestDateOfUsesLocalCalendar(t *testing.T) {
	loc := time.FixedZone("CLT", -3*3600)
	instant := time.Date(2025, time.February, 27, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, Date{2025, time.February, 26}, DateOf(instant, loc))
	assert.Equal(t, Date{2025, time.February, 27}, DateOf(instant, time.UTC))
}

func TestDateJSON(t *testing.T) {
	d := Date{2025, time.March, 1}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"01/03/2025"`), &back))
	assert.Equal(t, "01/03/2025", d.Display())
}
