package filterquery

import (
	"fmt"
	"time"

	"github.com/qhana/plugin-registry/internal/store"
	"gorm.io/gorm"
)

// DefaultPageSize and DefaultSurroundingPages match spec §4.2's "N≈5" and
// the teacher's pagination.go DefaultPageSize convention.
const (
	DefaultPageSize         = 25
	DefaultSurroundingPages = 5
)

// PageAnchor is a page's cursor: the id of the row immediately preceding the
// page (zero for page 1, which has no preceding row).
type PageAnchor struct {
	Page     int64
	Row      int64 // 0-based offset the page starts at
	CursorID uint  // id of the row strictly before the page; 0 for page 1
}

// PaginationResult is the full cursor-pagination envelope described by
// spec §4.2: total count, the current cursor's resolved row/page, a window
// of surrounding page anchors, the last-page anchor, and the fetched items.
type PaginationResult struct {
	TotalCount       int64
	CursorRow        int64
	CursorPage       int64
	SurroundingPages []PageAnchor
	LastPage         PageAnchor
	Items            []store.Plugin
}

type rankedRow struct {
	ID        uint
	RowNumber int64
}

// Paginate implements the algorithm from spec §4.2 step-by-step:
//  1. count rows matching the filter,
//  2. resolve the cursor value by a single lookup on the cursor column,
//  3. compute row numbers via a window function ordered by the composite
//     sort key (sort_version, then id as a tiebreaker),
//  4. compute the cursor's row and the ±surrounding page anchors plus the
//     last page,
//  5. return an offset+limit query starting at the cursor's row.
//
// Grounded structurally on the teacher's pagination.go (opaque-token paging)
// and on the original's db/pagination.go get_page_info/digest_pages for the
// surrounding-page windowing semantics.
func Paginate(db *gorm.DB, c Criteria, cursorID uint, pageSize, surroundingPages int, now time.Time) (*PaginationResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if surroundingPages <= 0 {
		surroundingPages = DefaultSurroundingPages
	}

	var total int64
	if err := Apply(db, c, now).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count filtered plugins: %w", err)
	}

	result := &PaginationResult{TotalCount: total}

	if total == 0 {
		result.CursorPage = 1
		return result, nil
	}

	ranked := Apply(db, c, now).
		Select("plugins.id AS id, ROW_NUMBER() OVER (ORDER BY plugins.sort_version ASC, plugins.id ASC) AS row_number")

	var rows []rankedRow
	if err := db.Table("(?) as ranked_plugins", ranked).Order("row_number ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("rank filtered plugins: %w", err)
	}

	idToRow := make(map[uint]int64, len(rows))
	rowToID := make(map[int64]uint, len(rows))
	for _, r := range rows {
		idToRow[r.ID] = r.RowNumber
		rowToID[r.RowNumber] = r.ID
	}

	// Resolve the cursor by a single lookup; absent or unresolved cursor
	// (edge case: "cursor not found") starts at row 0.
	var cursorRow int64
	if cursorID != 0 {
		cursorRow = idToRow[cursorID]
	}

	result.CursorRow = cursorRow
	result.CursorPage = cursorRow/int64(pageSize) + 1

	lastPageNum := (total-1)/int64(pageSize) + 1
	lastPageStartRow := (lastPageNum - 1) * int64(pageSize)
	result.LastPage = PageAnchor{
		Page:     lastPageNum,
		Row:      lastPageStartRow,
		CursorID: rowToID[lastPageStartRow], // 0 when lastPageStartRow==0 (single page)
	}

	// Edge case: collection fits in one page -> no surrounding pages.
	if total > int64(pageSize) {
		for page := result.CursorPage - int64(surroundingPages); page <= result.CursorPage+int64(surroundingPages); page++ {
			if page < 1 || page > lastPageNum {
				continue
			}
			startRow := (page - 1) * int64(pageSize)
			result.SurroundingPages = append(result.SurroundingPages, PageAnchor{
				Page:     page,
				Row:      startRow,
				CursorID: rowToID[startRow],
			})
		}
	}

	var items []store.Plugin
	if err := Apply(db, c, now).
		Order("plugins.sort_version ASC, plugins.id ASC").
		Offset(int(cursorRow)).
		Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("fetch page items: %w", err)
	}
	result.Items = items

	return result, nil
}
