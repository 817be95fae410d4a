package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// Config holds date-extraction policy. Passed in explicitly so extraction
// stays deterministic and testable.
type Config struct {
	// DayFirst resolves numeric day/month ambiguity (03/04/2024).
	DayFirst bool
	// FallbackToInvoiceMonth turns a dateless description into a one-month
	// period over the invoice's own month instead of UNRESOLVED.
	FallbackToInvoiceMonth bool
	// MaxYearsFromInvoice rejects tokens further than this from the invoice
	// date. OCR likes to transpose digits in years.
	MaxYearsFromInvoice int
}

// Extractor parses free-text descriptions into service periods.
// It never fails: malformed text degrades to UNRESOLVED and the validator
// flags it downstream.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxYearsFromInvoice <= 0 {
		cfg.MaxYearsFromInvoice = 5
	}
	return &Extractor{cfg: cfg, logger: logger}
}

var (
	// unambiguous ISO form, scanned first
	reISODate = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	// day-first (or month-first, per policy) numeric forms: DD/MM/YYYY, DD.MM.YYYY, DD-MM-YYYY
	reNumericDate = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	// month-name forms: "15 ianuarie 2024", "SEPTEMBRIE 2024", "sept 24", "Luna septembrie"
	reMonthName = regexp.MustCompile(`(?i)(?:(\d{1,2})\s*(?:de\s+)?)?\b(` + monthAlternation() + `)\b\.?(?:\s*,?\s*(\d{4}|\d{2}))?`)
)

// token is one date-like hit in the text. A month-only token (no day) spans
// the whole month.
type token struct {
	start time.Time
	end   time.Time
}

// Extract scans a description for date tokens and derives the service period.
// invoiceDate anchors year inference, sanity bounds and the fallback month.
func (e *Extractor) Extract(text string, invoiceDate time.Time) *entity.ServicePeriod {
	toks := e.scan(text, invoiceDate)

	switch len(toks) {
	case 0:
		if e.cfg.FallbackToInvoiceMonth && !invoiceDate.IsZero() {
			return &entity.ServicePeriod{
				Start:      monthStart(invoiceDate),
				End:        monthEnd(invoiceDate),
				Resolution: constants.ResolutionFallback,
			}
		}
		return &entity.ServicePeriod{Resolution: constants.ResolutionUnresolved}
	case 1:
		return &entity.ServicePeriod{
			Start:      toks[0].start,
			End:        toks[0].end,
			Resolution: constants.ResolutionSingleDate,
		}
	default:
		// Two dates form an explicit range regardless of textual order; with
		// more hits the period is the envelope of everything found.
		start, end := toks[0].start, toks[0].end
		for _, t := range toks[1:] {
			if t.start.Before(start) {
				start = t.start
			}
			if t.end.After(end) {
				end = t.end
			}
		}
		return &entity.ServicePeriod{
			Start:      start,
			End:        end,
			Resolution: constants.ResolutionExplicitRange,
		}
	}
}

// scan finds all date tokens, blanking each match so later passes cannot
// re-consume its digits (the year of 15/01/2024 must not become "sept 24").
func (e *Extractor) scan(text string, anchor time.Time) []token {
	buf := []byte(text)
	var toks []token

	add := func(t token, loc []int) {
		if !e.withinBounds(t, anchor) {
			e.logger.Debug("extract.date.out_of_bounds", "start", t.start, "anchor", anchor)
		} else {
			toks = append(toks, t)
		}
		for i := loc[0]; i < loc[1]; i++ {
			buf[i] = ' '
		}
	}

	for _, loc := range reISODate.FindAllSubmatchIndex(buf, -1) {
		y := atoi(buf, loc, 1)
		m := atoi(buf, loc, 2)
		d := atoi(buf, loc, 3)
		if dt, ok := makeDate(y, m, d); ok {
			add(token{start: dt, end: dt}, loc)
		}
	}

	for _, loc := range reNumericDate.FindAllSubmatchIndex(buf, -1) {
		a := atoi(buf, loc, 1)
		b := atoi(buf, loc, 2)
		y := atoi(buf, loc, 3)
		if dt, ok := e.resolveDayMonth(a, b, y); ok {
			add(token{start: dt, end: dt}, loc)
		}
	}

	for _, loc := range reMonthName.FindAllSubmatchIndex(buf, -1) {
		name := group(buf, loc, 2)
		month, ok := lookupMonth(name)
		if !ok {
			continue
		}
		// "mai" is also the Romanian word for "more"; without a day or a
		// year next to it the token is noise, not a date
		if ambiguousMonthName(name) && group(buf, loc, 1) == "" && group(buf, loc, 3) == "" {
			continue
		}
		year := 0
		if ys := group(buf, loc, 3); ys != "" {
			year, _ = strconv.Atoi(ys)
			if year < 100 {
				year += 2000
			}
		} else if !anchor.IsZero() {
			year = anchor.Year()
		} else {
			continue // bare month name with no year and no anchor
		}

		if ds := group(buf, loc, 1); ds != "" {
			day, _ := strconv.Atoi(ds)
			if dt, ok := makeDate(year, int(month), day); ok {
				add(token{start: dt, end: dt}, loc)
			}
			continue
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		add(token{start: first, end: monthEnd(first)}, loc)
	}

	return toks
}

// resolveDayMonth applies the DayFirst policy to an ambiguous numeric pair,
// swapping only when the preferred reading is impossible.
func (e *Extractor) resolveDayMonth(a, b, year int) (time.Time, bool) {
	day, month := a, b
	if !e.cfg.DayFirst {
		day, month = b, a
	}
	if dt, ok := makeDate(year, month, day); ok {
		return dt, true
	}
	return makeDate(year, day, month)
}

func (e *Extractor) withinBounds(t token, anchor time.Time) bool {
	if anchor.IsZero() {
		return true
	}
	lo := anchor.AddDate(-e.cfg.MaxYearsFromInvoice, 0, 0)
	hi := anchor.AddDate(e.cfg.MaxYearsFromInvoice, 0, 0)
	return !t.start.Before(lo) && !t.end.After(hi)
}

func group(buf []byte, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return string(buf[loc[2*n]:loc[2*n+1]])
}

func atoi(buf []byte, loc []int, n int) int {
	v, _ := strconv.Atoi(group(buf, loc, n))
	return v
}
