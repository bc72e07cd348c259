// Package pagination computes page bounds and HATEOAS navigation links for list endpoints.
package pagination

import "fmt"

// PageSize is the fixed number of items returned per page.
const PageSize = 10

// Clamp bounds requested into [1, lastPage] and returns the page, the last page and the row offset.
// lastPage is at least 1 even when totalCount is 0.
func Clamp(requested, totalCount int) (page, lastPage, offset int) {
	lastPage = (totalCount + PageSize - 1) / PageSize
	if lastPage < 1 {
		lastPage = 1
	}

	page = requested
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	return page, lastPage, (page - 1) * PageSize
}

// Links builds the navigation links for page within [1, lastPage].
// nextPage/lastPage are omitted on the last page, prevPage/firstPage on the first.
func Links(basePath string, page, lastPage int) map[string]string {
	links := map[string]string{}
	if page < lastPage {
		links["nextPage"] = fmt.Sprintf("%s?page=%d", basePath, page+1)
		links["lastPage"] = fmt.Sprintf("%s?page=%d", basePath, lastPage)
	}
	if page > 1 {
		links["prevPage"] = fmt.Sprintf("%s?page=%d", basePath, page-1)
		links["firstPage"] = fmt.Sprintf("%s?page=1", basePath)
	}
	return links
}
