package paginate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var pageParam = regexp.MustCompile(`[?&]page=(\d+)`)

// TotalPages scans a loaded listing page for pagination anchors and returns
// the highest page number they reference. A page without pagination anchors,
// or one whose anchors cannot be parsed, counts as a single page. Under-counting
// is preferred over failing the run, so this never returns an error.
func TotalPages(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 1
	}

	max := 0
	doc.Find(`a[href*="page="]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := pageParam.FindStringSubmatch(href)
		if m == nil {
			return
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		if n > max {
			max = n
		}
	})

	if max < 1 {
		return 1
	}
	return max
}

// PageURL builds the URL for page n of base. The page parameter is appended
// with '&' when base already carries a query string, '?' otherwise.
func PageURL(base string, n int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, n)
}
