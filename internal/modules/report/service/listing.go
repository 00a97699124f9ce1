package report

import "anoa.com/civicreport/internal/modules/report/dto"

// PageSize is the fixed number of reports per listing page.
const PageSize = 3

// BuildListQuery resolves listing parameters to a store query. A positive
// pageNumber wins over category, which is then ignored. Without either the
// whole collection is returned.
func BuildListQuery(pageNumber int, category string) dto.ListQuery {
	if pageNumber > 0 {
		return dto.ListQuery{
			Offset: (pageNumber - 1) * PageSize,
			Limit:  PageSize,
		}
	}
	if category != "" {
		return dto.ListQuery{Category: category}
	}
	return dto.ListQuery{}
}
