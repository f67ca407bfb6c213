package querysql

// Result is the output of FetchMany. PageInfo is set for cursor requests
// only; offset callers combine Rows with Count.
type Result struct {
	Rows     []Row
	PageInfo *ConnectionPageInfo
}

// OffsetPageInfo describes an offset page.
type OffsetPageInfo struct {
	TotalCount      int64 `json:"totalCount"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// OffsetPage is one page of nodes with offset page info.
type OffsetPage struct {
	Nodes    []Row          `json:"nodes"`
	PageInfo OffsetPageInfo `json:"pageInfo"`
}

// ConnectionPageInfo describes a cursor page. Cursors are nil on an empty
// page.
type ConnectionPageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Edge pairs a node with its cursor.
type Edge struct {
	Node   Row    `json:"node"`
	Cursor string `json:"cursor"`
}

// Connection is one cursor page.
type Connection struct {
	Edges    []Edge             `json:"edges"`
	PageInfo ConnectionPageInfo `json:"pageInfo"`
}

// offsetPageInfo computes page info for an offset page:
// hasNextPage = total > limit+offset, hasPreviousPage = offset > 0.
func offsetPageInfo(total, limit, offset int64) OffsetPageInfo {
	return OffsetPageInfo{
		TotalCount:      total,
		HasNextPage:     total > limit+offset,
		HasPreviousPage: offset > 0,
	}
}
