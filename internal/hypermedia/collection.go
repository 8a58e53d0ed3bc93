package hypermedia

import "fmt"

// BuildCollectionResponse builds the envelope for a plain (non-paged)
// collection resource: self link, item count, and one ApiLink per item.
func BuildCollectionResponse(self ApiLink, collectionSize int, items []ApiLink) ApiResponse {
	return ApiResponse{
		Links: []ApiLink{self},
		Data: CollectionResource{
			BaseApiObject:  BaseApiObject{Self: self},
			CollectionSize: collectionSize,
			Items:          items,
		},
	}
}

// PageLinks carries the cursor-derived navigation links for one page,
// computed by the caller from a filterquery.PaginationResult.
type PageLinks struct {
	First    *ApiLink
	Last     *ApiLink
	Prev     *ApiLink
	Next     *ApiLink
	Numbered map[int]ApiLink // page number -> link, already pointed at that page's cursor
}

// BuildPageResponse builds the envelope for one page of a cursor-paged
// collection resource, adding `first`, `last`, `prev`, `next`, and
// `page-<n>` rel tokens automatically per spec §4.7's special case for
// collection/page resources.
func BuildPageResponse(self ApiLink, page, collectionSize int, items []ApiLink, nav PageLinks) ApiResponse {
	links := []ApiLink{withRel(self, "self")}
	if nav.First != nil {
		links = append(links, withRel(*nav.First, "first"))
	}
	if nav.Last != nil {
		links = append(links, withRel(*nav.Last, "last"))
	}
	if nav.Prev != nil {
		links = append(links, withRel(*nav.Prev, "prev"))
	}
	if nav.Next != nil {
		links = append(links, withRel(*nav.Next, "next"))
	}
	for n, l := range nav.Numbered {
		links = append(links, withRel(l, fmt.Sprintf("page-%d", n)))
	}

	return ApiResponse{
		Links: links,
		Data: CursorPage{
			BaseApiObject:  BaseApiObject{Self: self},
			CollectionSize: collectionSize,
			Page:           page,
			Items:          items,
		},
	}
}

func withRel(l ApiLink, rel string) ApiLink {
	for _, r := range l.Rel {
		if r == rel {
			return l
		}
	}
	cp := l
	cp.Rel = append(append([]string{}, l.Rel...), rel)
	return cp
}
