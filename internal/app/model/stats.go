package model

// DashboardStats is the system-wide aggregation the link store derives from
// the click event stream. The edge only consumes the shape.
type DashboardStats struct {
	TotalSystemClicks int64  `json:"total_system_clicks"`
	TopLinks          []Link `json:"top_links"`
}

// DailyClicks buckets clicks by event timestamp, not arrival order, so
// out-of-order delivery from the edge does not skew the chart.
type DailyClicks struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// LinkStats is the per-link aggregation: total clicks, referrer breakdown
// and daily buckets.
type LinkStats struct {
	TotalClicks int64            `json:"total_clicks"`
	Referrers   map[string]int64 `json:"referrers"`
	DailyClicks []DailyClicks    `json:"daily_clicks"`
}
