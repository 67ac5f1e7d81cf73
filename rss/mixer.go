package rss

import (
	"adboard/models"
)

// Mix interleaves articles round-robin by source so no single feed
// dominates a page. Input articles are expected pre-sorted by recency;
// each source keeps its internal order. sourceOrder fixes the rotation
// order (feed registration order); sources present in the input but not in
// sourceOrder are appended in first-appearance order. Sources with fewer
// articles drop out of later rounds without leaving gaps.
func Mix(articles []models.Article, sourceOrder []string, pageSize int) []models.Article {
	if pageSize <= 0 || len(articles) == 0 {
		return []models.Article{}
	}
	if len(articles) <= pageSize {
		return articles
	}

	groups := map[string][]models.Article{}
	order := append([]string{}, sourceOrder...)
	known := map[string]bool{}
	for _, source := range order {
		known[source] = true
	}

	for _, article := range articles {
		if !known[article.Source] {
			known[article.Source] = true
			order = append(order, article.Source)
		}
		groups[article.Source] = append(groups[article.Source], article)
	}

	// Single source degenerates to a plain prefix slice
	if len(groups) == 1 {
		return articles[:pageSize]
	}

	maxDepth := 0
	for _, group := range groups {
		if len(group) > maxDepth {
			maxDepth = len(group)
		}
	}

	mixed := make([]models.Article, 0, pageSize)
	for depth := 0; depth < maxDepth && len(mixed) < pageSize; depth++ {
		for _, source := range order {
			if len(mixed) >= pageSize {
				break
			}
			group := groups[source]
			if depth < len(group) {
				mixed = append(mixed, group[depth])
			}
		}
	}
	return mixed
}
