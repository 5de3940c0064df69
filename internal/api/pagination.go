package api

import (
	"regexp"
	"strconv"
	"strings"
)

var pageParam = regexp.MustCompile(`[?&]page=(\d+)`)

// ParseLastPage returns the page number of the rel="last" entry of a Link
// header, or 1 when there is none.
func ParseLastPage(link string) int {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="last"`) {
			continue
		}
		m := pageParam.FindStringSubmatch(part)
		if m == nil {
			return 1
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 1
		}
		return n
	}
	return 1
}

// totalPages derives the page count for a list response. GitHub omits the
// last link on the last page itself, in which case the current page is the
// last one.
func totalPages(link string, page int) int {
	if strings.Contains(link, `rel="last"`) {
		return ParseLastPage(link)
	}
	if strings.Contains(link, `rel="prev"`) && page > 1 {
		return page
	}
	return 1
}
