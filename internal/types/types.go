package types

import "time"

// Post represents one timeline entry reconstructed from the rendered DOM.
type Post struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"` // ISO-8601, straight from the <time> element

	AuthorName      string `json:"author_name"`
	AuthorHandle    string `json:"author_handle"`
	AuthorAvatarURL string `json:"author_avatar_url,omitempty"`

	// RetweetedBy is the name of the resharing account. Empty for original posts.
	RetweetedBy string `json:"retweeted_by,omitempty"`

	HasReplies       bool `json:"has_replies"`
	HasTruncatedText bool `json:"has_truncated_text"`

	TextContent  string    `json:"text_content"`
	CanonicalURL string    `json:"canonical_url"`
	Images       []string  `json:"images"`
	Videos       []Video   `json:"videos"`
	LinkCard     *LinkCard `json:"link_card,omitempty"`
	QuotedPost   *Post     `json:"quoted_post,omitempty"`
}

// Video is a rendered video attachment.
type Video struct {
	PosterURL string `json:"poster_url"`
	MediaURL  string `json:"media_url,omitempty"`
}

// LinkCard is the preview card rendered for an external link.
type LinkCard struct {
	URL       string `json:"url"`
	ImageURL  string `json:"image_url,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
	Title     string `json:"title,omitempty"`
}

// IsOriginal reports whether the post was authored, not reshared, by the
// account it is shown under.
func (p Post) IsOriginal() bool {
	return p.RetweetedBy == ""
}

// Time parses CreatedAt. The zero time is returned when it cannot be parsed.
func (p Post) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Summary is the digest of a window of posts.
type Summary struct {
	ID         string              `json:"id"`
	TimeFrom   time.Time           `json:"time_from"`
	TimeTo     time.Time           `json:"time_to"`
	TextItems  []SummaryTextItem   `json:"text_items"`
	MediaItems []SummaryMediaGroup `json:"media_items"`
}

// SummaryTextItem is one written digest entry and the posts it refers to.
type SummaryTextItem struct {
	Text         string `json:"text"`
	RelatedPosts []Post `json:"related_posts"`
}

// SummaryMediaGroup collects the images posted by one author.
type SummaryMediaGroup struct {
	AuthorName      string         `json:"author_name"`
	AuthorAvatarURL string         `json:"author_avatar_url,omitempty"`
	Images          []SummaryImage `json:"images"`
}

// SummaryImage points back at the post an image came from.
type SummaryImage struct {
	ImageURL string `json:"image_url"`
	PostID   string `json:"post_id"`
	PostURL  string `json:"post_url"`
	PostText string `json:"post_text,omitempty"`
}

// Preferences are the user's free-text interest statements.
type Preferences struct {
	Interests    string `json:"interests" toml:"interests"`
	NotInterests string `json:"not_interests" toml:"not_interests"`
}
