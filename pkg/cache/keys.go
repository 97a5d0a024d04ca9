package cache

import (
	"fmt"
	"time"
)

// Key layout: bookd:{module}:{kind}:{identifier}
const (
	Prefix = "bookd"

	TTLEventDetail = 30 * time.Minute
	TTLEventList   = 5 * time.Minute
	TTLAnalytics   = 1 * time.Minute
)

func EventDetailKey(eventID string) string {
	return fmt.Sprintf("%s:events:detail:%s", Prefix, eventID)
}

func EventListKey(category, search string, page, limit int) string {
	return fmt.Sprintf("%s:events:list:c=%s:q=%s:p=%d:l=%d", Prefix, category, search, page, limit)
}

// EventPattern matches every cached entry for one event
func EventPattern(eventID string) string {
	return fmt.Sprintf("%s:events:detail:%s*", Prefix, eventID)
}

// EventListPattern matches every cached listing page
func EventListPattern() string {
	return Prefix + ":events:list:*"
}

func AnalyticsDashboardKey() string {
	return Prefix + ":analytics:dashboard"
}

func AnalyticsEventKey(eventID string) string {
	return fmt.Sprintf("%s:analytics:event:%s", Prefix, eventID)
}
