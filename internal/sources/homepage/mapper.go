package homepage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nowen/nowen/internal/domain"
)

// Group is one category of the file with its bookmarks, in file order
type Group struct {
	Category  string
	Bookmarks []domain.Bookmark
}

// MapBookmarks converts BookmarksConfig to groups of domain bookmarks.
// Entries without href are skipped. Bookmark IDs are left empty; the
// store matches imported bookmarks by URL.
func MapBookmarks(config BookmarksConfig) ([]Group, error) {
	groups := make([]Group, 0, len(config))
	total := 0

	for _, category := range config {
		// Normally one key per list item; sort for a stable order otherwise
		names := make([]string, 0, len(category))
		for name := range category {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, categoryName := range names {
			group := Group{Category: strings.TrimSpace(categoryName)}

			for _, bookmarkMap := range category[categoryName] {
				for bookmarkName, entryList := range bookmarkMap {
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]
					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}

					group.Bookmarks = append(group.Bookmarks, domain.Bookmark{
						Title:       bookmarkName,
						URL:         href,
						Description: entry.Description,
						Icon:        entry.Icon,
						Tags:        tagsFor(entry),
					})
				}
			}

			total += len(group.Bookmarks)
			groups = append(groups, group)
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}
	return groups, nil
}

// tagsFor keeps the Homepage abbreviation as a searchable tag
func tagsFor(entry BookmarkEntry) []string {
	if entry.Abbr == "" {
		return []string{}
	}
	return []string{strings.ToLower(entry.Abbr)}
}
