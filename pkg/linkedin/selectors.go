package linkedin

// Feed item queries, chosen by page type.
const (
	CompanyItems = "div.feed-shared-update-v2"
	ProfileItems = "div.occludable-update, div.feed-shared-update-v2"
)

// Truncation controls. Only buttons whose label contains SeeMoreText are
// clicked; the same class also carries "see less".
const (
	SeeMoreButton = "button.feed-shared-inline-show-more-text__button"
	SeeMoreText   = "see more"
)

// RepostIcon marks an item that re-shares someone else's post.
const RepostIcon = "li-icon[type='repost-filled']"

// RepostPhrases mark a reshare when they appear in an item's text.
var RepostPhrases = []string{"reposted", "shared"}

// ContentSelectors locate a post's body, most specific first.
var ContentSelectors = []string{
	".feed-shared-update-v2__description-wrapper",
	".feed-shared-text",
	".feed-shared-text__text-view",
	".break-words",
	".update-components-text",
	".feed-shared-update-v2__description",
	".feed-shared-inline-show-more-text",
	".feed-shared-text-view",
}

// DateSelectors locate the relative timestamp label.
var DateSelectors = []string{
	".feed-shared-actor__sub-description",
	".feed-shared-actor__sub-description span",
	".ml4.mt2.text-body-xsmall.t-black--light",
	".visually-hidden",
}

// DateSeparator splits the timestamp from trailers such as "Edited".
const DateSeparator = "•"

// Engagement counters.
var (
	LikeSelectors = []string{
		".social-details-social-counts__reactions-count",
		".social-details-social-counts__count-value",
	}
	CommentSelectors = []string{
		".social-details-social-counts__comments-count",
		".social-details-social-counts__comments span",
	}
	ShareSelectors = []string{
		".social-details-social-counts__shares-count",
	}
)

// Profile headings.
var (
	CompanyNameSelectors = []string{
		"h1.org-top-card-summary__title",
	}
	ProfileNameSelectors = []string{
		"h1.text-heading-xlarge",
		"h1.inline.t-24.t-black.t-normal.break-words",
		"h1.top-card-layout__title",
		".feed-identity-module__actor-meta a",
	}
)
