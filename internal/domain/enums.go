package domain

// PageType classifies a report page's section role. It is assigned
// positionally, never from page content.
type PageType string

const (
	// PageTypeCover is the report's first page (filer identification).
	PageTypeCover PageType = "cover"
	// PageTypeSummary is the income/expenditure summary page.
	PageTypeSummary PageType = "summary"
	// PageTypeIncome lists itemized income entries.
	PageTypeIncome PageType = "income"
	// PageTypeExpenditure lists itemized expenditure entries.
	PageTypeExpenditure PageType = "expenditure"
	// PageTypeDonations lists individual and corporate donations.
	PageTypeDonations PageType = "donations"
	// PageTypeAssets lists assets and liabilities.
	PageTypeAssets PageType = "assets"
	// PageTypeContinuation is the fallback for pages past the fixed
	// section table.
	PageTypeContinuation PageType = "continuation"
)
