package scraper

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when scraping breaks

const (
	// Timeline selectors
	TimelineContainer = `[aria-label="Timeline: Your Home Timeline"]`
	ForYouTab         = `a[role="tab"][aria-selected="true"]`
	ForYouTabLabel    = "For you"

	// Post content selectors
	PostTimestamp  = `time`
	PostText       = `[data-testid="tweetText"]`
	PostAuthor     = `[data-testid="User-Name"]`
	PostAvatar     = `[data-testid="Tweet-User-Avatar"] img`
	PostPhoto      = `[data-testid="tweetPhoto"] img`
	PostVideo      = `video`
	PostShowMore   = `[data-testid="tweet-text-show-more-link"]`
	PostLinkCard   = `[data-testid="card.wrapper"] a`
	// LinkCardTarget is set on the card anchor by the page adapter. The card
	// nests a second <a>, which HTML parsing splits out of the markup.
	LinkCardTarget = "data-xr-target"
	SocialContext  = `[data-testid="socialContext"]`
	StatusLinkPart = "/status/"

	// QuoteMarker is the exact label rendered above an embedded quote.
	QuoteMarker = "Quote"

	// Login page indicators (for detecting auth state)
	HomeIndicator = `[data-testid="SideNav_NewTweet_Button"]`
	LoginForm     = `[data-testid="loginButton"]`
)

// Common wait conditions
const (
	WaitForTimeline = TimelineContainer
)
