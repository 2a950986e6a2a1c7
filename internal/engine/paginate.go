package engine

import (
	"fmt"
	"net/url"
	"strconv"
)

// PageInfo is the pagination block of a list envelope. NextPage and PrevPage
// are request URLs and are null unless a further/previous page exists.
type PageInfo struct {
	TotalItems   int     `json:"totalItems"`
	CurrentPage  int     `json:"currentPage"`
	ItemsPerPage int     `json:"itemsPerPage"`
	TotalPages   int     `json:"totalPages"`
	URLPath      string  `json:"urlPath"`
	URLQuery     *string `json:"urlQuery"`
	NextPage     *string `json:"nextPage"`
	PrevPage     *string `json:"prevPage"`
}

// Paginate computes page bounds from a total count produced by one count
// query. A requested page beyond the last page is clamped to the last page
// with a warning; the caller then fetches that clamped page's slice, never an
// empty page. An empty collection has zero pages and no clamping.
func Paginate(totalItems, requestedPage, perPage int, path, rawQuery string) (*PageInfo, []Notification) {
	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + perPage - 1) / perPage
	}

	current := requestedPage
	var notes []Notification
	if totalPages > 0 && requestedPage > totalPages {
		notes = append(notes, warning("page",
			fmt.Sprintf("Requested page %d exceeds available pages. Showing page %d.", requestedPage, totalPages)))
		current = totalPages
	}

	info := &PageInfo{
		TotalItems:   totalItems,
		CurrentPage:  current,
		ItemsPerPage: perPage,
		TotalPages:   totalPages,
		URLPath:      path,
	}
	if rawQuery != "" {
		info.URLQuery = &rawQuery
	}
	if current < totalPages {
		next := pageURL(path, rawQuery, current+1)
		info.NextPage = &next
	}
	if totalPages > 0 && current > 1 {
		prev := pageURL(path, rawQuery, current-1)
		info.PrevPage = &prev
	}

	return info, notes
}

// pageURL rebuilds the request URL with the page parameter replaced. The
// original query string is preserved otherwise, so per_page, sort, search and
// filter survive navigation.
func pageURL(path, rawQuery string, page int) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	values.Set("page", strconv.Itoa(page))
	return path + "?" + values.Encode()
}
