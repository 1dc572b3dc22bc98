// Package classify assigns section labels to report pages by position.
//
// Disclosure reports follow a fixed pagination: the cover sheet, the
// summary, then the itemized sections in statutory order. Classification
// therefore depends only on the page number, never on page content or on
// anything the extraction model says.
package classify

import "seikin/internal/domain"

// sectionTable maps a 1-based page number to its section label.
var sectionTable = map[int]domain.PageType{
	1: domain.PageTypeCover,
	2: domain.PageTypeSummary,
	3: domain.PageTypeIncome,
	4: domain.PageTypeExpenditure,
	5: domain.PageTypeDonations,
	6: domain.PageTypeAssets,
}

// Classify returns the section label for the given page. It is a pure
// function of its two arguments and never fails: pages past the fixed
// section table, and any out-of-range input, map to the continuation
// fallback.
func Classify(pageNumber, totalPages int) domain.PageType {
	if pageNumber < 1 || (totalPages > 0 && pageNumber > totalPages) {
		return domain.PageTypeContinuation
	}
	if t, ok := sectionTable[pageNumber]; ok {
		return t
	}
	return domain.PageTypeContinuation
}
