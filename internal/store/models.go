package store

import "time"

// SummaryInfo is the listing view of a stored summary
type SummaryInfo struct {
	ID          string    `json:"id"`
	TimeFrom    time.Time `json:"time_from"`
	TimeTo      time.Time `json:"time_to"`
	TextItems   int       `json:"text_items"`
	MediaGroups int       `json:"media_groups"`
	LinkedPosts int       `json:"linked_posts"`
}
