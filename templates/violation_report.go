package templates

import (
	"fmt"
	"strconv"
	"strings"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/pkg/hbpr"
)

const (
	REPORT_DATE_LAYOUT = "2006-01-02 15:04"

	REPORT_HEADER = `HBPR validation report %s
Generated %s
Records: %d  Validated: %d  Valid: %d  Invalid: %d  Parse failed: %d  Stale: %d
Simple records: %d  Missing: %d  Range: %d-%d
`
	REPORT_MISSING  = "Missing numbers: %s\n"
	REPORT_COUNT    = "%-9s %d\n"
	REPORT_SECTION  = "\n[%s] %d\n"
	REPORT_RECORD   = "  HBNB %d %s\n"
	REPORT_MESSAGE  = "    %s\n"
	REPORT_NO_ERROR = "\nNo violations found.\n"
)

// RenderViolationReport prints the statistics of a flight followed by every
// violation grouped by category. results must be ordered by hbnb.
func RenderViolationReport(summary *entity.FlightSummary, results []*entity.ValidationResult, missing []int) string {
	var b strings.Builder
	st := summary.Stats

	fmt.Fprintf(&b, REPORT_HEADER,
		st.FlightID,
		summary.GeneratedAt.Format(REPORT_DATE_LAYOUT),
		st.TotalRecords, st.Validated, st.Valid, st.Invalid, st.ParseFailed, st.Stale,
		st.SimpleRecords, st.Missing, st.MinHbnb, st.MaxHbnb)

	if len(missing) > 0 {
		numbers := make([]string, 0, len(missing))
		for _, n := range missing {
			numbers = append(numbers, strconv.Itoa(n))
		}
		fmt.Fprintf(&b, REPORT_MISSING, strings.Join(numbers, ", "))
	}

	b.WriteString("\n")
	counts := categoryCounts(summary.Categories)
	for _, c := range hbpr.Categories {
		fmt.Fprintf(&b, REPORT_COUNT, c.String(), counts[c])
	}

	if st.Invalid == 0 {
		b.WriteString(REPORT_NO_ERROR)
		return b.String()
	}

	for _, c := range hbpr.Categories {
		if counts[c] == 0 {
			continue
		}
		fmt.Fprintf(&b, REPORT_SECTION, c.String(), counts[c])
		for _, r := range results {
			text := r.Errors()[c.String()]
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, REPORT_RECORD, r.HbnbNumber, r.Name)
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(&b, REPORT_MESSAGE, line)
			}
		}
	}

	return b.String()
}

func categoryCounts(c entity.CategoryCounts) map[hbpr.Category]int {
	return map[hbpr.Category]int{
		hbpr.CategoryBaggage:  c.Baggage,
		hbpr.CategoryPassport: c.Passport,
		hbpr.CategoryName:     c.Name,
		hbpr.CategoryVisa:     c.Visa,
		hbpr.CategoryOther:    c.Other,
	}
}
