package validate

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrReportCategory is returned for an unknown report category.
	ErrReportCategory = errors.New("unknown report category")
	// ErrReportDetails is returned when report details are empty or too long.
	ErrReportDetails = errors.New("invalid report details")
)

// MaxReportDetails is the longest accepted report description, in runes.
const MaxReportDetails = 1000

// ReportCategories lists the categories the report form offers.
var ReportCategories = []string{
	"spam",
	"abuse",
	"sexual",
	"violence",
	"illegal",
	"copyright",
	"other",
}

// ReportCategory checks that category is one of ReportCategories.
func ReportCategory(category string) error {
	for _, c := range ReportCategories {
		if c == category {
			return nil
		}
	}
	return ErrReportCategory
}

// ReportDetails requires non-blank details no longer than MaxReportDetails.
func ReportDetails(details string) error {
	if strings.TrimSpace(details) == "" {
		return ErrReportDetails
	}
	if utf8.RuneCountInString(details) > MaxReportDetails {
		return ErrReportDetails
	}
	return nil
}
