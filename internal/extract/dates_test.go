package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadrag/invoice-prorata/constants"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtract_Notations(t *testing.T) {
	anchor := date(2024, time.March, 15)
	e := NewExtractor(Config{DayFirst: true, FallbackToInvoiceMonth: true}, nil)

	tests := []struct {
		name       string
		text       string
		wantStart  time.Time
		wantEnd    time.Time
		resolution constants.Resolution
	}{
		{
			name:       "slash range",
			text:       "Servicii paza perioada 15/01/2024 - 20/03/2024",
			wantStart:  date(2024, time.January, 15),
			wantEnd:    date(2024, time.March, 20),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "dot notation",
			text:       "chirie 01.02.2024 pana la 29.02.2024",
			wantStart:  date(2024, time.February, 1),
			wantEnd:    date(2024, time.February, 29),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "dash notation",
			text:       "mentenanta 05-01-2024 / 31-01-2024",
			wantStart:  date(2024, time.January, 5),
			wantEnd:    date(2024, time.January, 31),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "iso notation",
			text:       "interval 2024-01-15 .. 2024-02-10",
			wantStart:  date(2024, time.January, 15),
			wantEnd:    date(2024, time.February, 10),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "reversed order is normalized",
			text:       "service 20/03/2024 to 15/01/2024",
			wantStart:  date(2024, time.January, 15),
			wantEnd:    date(2024, time.March, 20),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "single date",
			text:       "prestari servicii 10/02/2024",
			wantStart:  date(2024, time.February, 10),
			wantEnd:    date(2024, time.February, 10),
			resolution: constants.ResolutionSingleDate,
		},
		{
			name:       "romanian month with year",
			text:       "Chirie SEPTEMBRIE 2024",
			wantStart:  date(2024, time.September, 1),
			wantEnd:    date(2024, time.September, 30),
			resolution: constants.ResolutionSingleDate,
		},
		{
			name:       "romanian month without year uses invoice year",
			text:       "Luna septembrie",
			wantStart:  date(2024, time.September, 1),
			wantEnd:    date(2024, time.September, 30),
			resolution: constants.ResolutionSingleDate,
		},
		{
			name:       "abbreviated month with short year",
			text:       "abonament sept 24",
			wantStart:  date(2024, time.September, 1),
			wantEnd:    date(2024, time.September, 30),
			resolution: constants.ResolutionSingleDate,
		},
		{
			name:       "day month name year",
			text:       "incepand cu 15 ianuarie 2024",
			wantStart:  date(2024, time.January, 15),
			wantEnd:    date(2024, time.January, 15),
			resolution: constants.ResolutionSingleDate,
		},
		{
			name:       "two month names form a range",
			text:       "perioada ianuarie 2024 - martie 2024",
			wantStart:  date(2024, time.January, 1),
			wantEnd:    date(2024, time.March, 31),
			resolution: constants.ResolutionExplicitRange,
		},
		{
			name:       "three dates collapse to the envelope",
			text:       "facturat 01/01/2024, 15/02/2024 si 10/03/2024",
			wantStart:  date(2024, time.January, 1),
			wantEnd:    date(2024, time.March, 10),
			resolution: constants.ResolutionExplicitRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := e.Extract(tt.text, anchor)
			require.NotNil(t, p)
			assert.Equal(t, tt.resolution, p.Resolution)
			assert.Equal(t, tt.wantStart, p.Start, "start")
			assert.Equal(t, tt.wantEnd, p.End, "end")
		})
	}
}

func TestExtract_DayFirstPolicy(t *testing.T) {
	anchor := date(2024, time.April, 30)

	dayFirst := NewExtractor(Config{DayFirst: true}, nil)
	p := dayFirst.Extract("abonament 03/04/2024", anchor)
	require.Equal(t, constants.ResolutionSingleDate, p.Resolution)
	assert.Equal(t, date(2024, time.April, 3), p.Start)

	monthFirst := NewExtractor(Config{DayFirst: false}, nil)
	p = monthFirst.Extract("abonament 03/04/2024", anchor)
	require.Equal(t, constants.ResolutionSingleDate, p.Resolution)
	assert.Equal(t, date(2024, time.March, 4), p.Start)
}

func TestExtract_ImpossiblePreferredReadingSwaps(t *testing.T) {
	e := NewExtractor(Config{DayFirst: false}, nil)
	// month-first reading 25/01 is impossible, falls back to day-first
	p := e.Extract("scadenta 25/01/2024", date(2024, time.January, 31))
	require.Equal(t, constants.ResolutionSingleDate, p.Resolution)
	assert.Equal(t, date(2024, time.January, 25), p.Start)
}

func TestExtract_Fallback(t *testing.T) {
	anchor := date(2024, time.March, 12)

	e := NewExtractor(Config{DayFirst: true, FallbackToInvoiceMonth: true}, nil)
	p := e.Extract("servicii curatenie birouri", anchor)
	require.NotNil(t, p)
	assert.Equal(t, constants.ResolutionFallback, p.Resolution)
	assert.Equal(t, date(2024, time.March, 1), p.Start)
	assert.Equal(t, date(2024, time.March, 31), p.End)

	e = NewExtractor(Config{DayFirst: true, FallbackToInvoiceMonth: false}, nil)
	p = e.Extract("servicii curatenie birouri", anchor)
	require.NotNil(t, p)
	assert.Equal(t, constants.ResolutionUnresolved, p.Resolution)
	assert.False(t, p.Resolved())
}

func TestExtract_SanityBounds(t *testing.T) {
	anchor := date(2024, time.March, 15)
	e := NewExtractor(Config{DayFirst: true, MaxYearsFromInvoice: 5}, nil)

	// OCR transposed the year; token is rejected and the text reads dateless
	p := e.Extract("servicii 15/01/1999", anchor)
	assert.Equal(t, constants.ResolutionUnresolved, p.Resolution)

	// one in-bounds token survives next to an out-of-bounds one
	p = e.Extract("servicii 15/01/1999 - 20/03/2024", anchor)
	require.Equal(t, constants.ResolutionSingleDate, p.Resolution)
	assert.Equal(t, date(2024, time.March, 20), p.Start)
}

func TestExtract_MalformedTextNeverFails(t *testing.T) {
	e := NewExtractor(Config{DayFirst: true}, nil)
	for _, text := range []string{
		"",
		"99/99/9999",
		"30/02/2024",
		"////....----",
		"mai multe servicii", // "mai" the word, not May the month
	} {
		p := e.Extract(text, date(2024, time.June, 1))
		assert.Equal(t, constants.ResolutionUnresolved, p.Resolution, "text %q", text)
	}
}

func TestExtract_ZeroAnchor(t *testing.T) {
	e := NewExtractor(Config{DayFirst: true, FallbackToInvoiceMonth: true}, nil)

	// no anchor: explicit dates still work, fallback does not
	p := e.Extract("15/01/2024 - 20/02/2024", time.Time{})
	assert.Equal(t, constants.ResolutionExplicitRange, p.Resolution)

	p = e.Extract("fara date", time.Time{})
	assert.Equal(t, constants.ResolutionUnresolved, p.Resolution)
}
