package quote

import (
	"strings"

	"aeroparts/internal/models"
)

// Partition splits a search result into part-number groups and the list
// of terms no stock row matched. Groups preserve the encounter order of
// each part number's first row; a group's description comes from its
// first member and its total quantity is the sum over members.
//
// Every deduplicated input term ends up on exactly one side: either its
// part number heads a group, or it appears in the not-found list.
func Partition(terms []string, items []models.StockItem) ([]models.PartGroup, []string) {
	byPN := make(map[string]int, len(items))
	groups := make([]models.PartGroup, 0, len(items))
	for _, it := range items {
		pn := strings.ToUpper(it.PartNumber)
		idx, ok := byPN[pn]
		if !ok {
			byPN[pn] = len(groups)
			groups = append(groups, models.PartGroup{
				PartNumber:  pn,
				Description: it.Description,
			})
			idx = len(groups) - 1
		}
		groups[idx].Items = append(groups[idx].Items, it)
		groups[idx].TotalQuantity += it.Quantity
	}

	notFound := make([]string, 0)
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToUpper(t)
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, ok := byPN[t]; !ok {
			notFound = append(notFound, t)
		}
	}
	return groups, notFound
}
