// Package feedtest builds LinkedIn-shaped HTML pages for tests and demos.
package feedtest

import (
	"fmt"
	"html"
	"strings"
)

// Item describes one feed item to render.
type Item struct {
	Content  string
	Date     string
	Likes    string
	Comments string
	Shares   string
	Repost   bool
	SeeMore  bool
	// Raw replaces the generated body entirely.
	Raw string
}

// Post returns a plain item with the given content.
func Post(content string) Item {
	return Item{Content: content, Date: "2d • Edited", Likes: "12", Comments: "3 comments", Shares: "1 repost"}
}

// Posts returns n distinct plain items.
func Posts(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Post(fmt.Sprintf("Post number %d about building things", i+1))
	}
	return items
}

// Options shape the page around the items.
type Options struct {
	Company bool
	Name    string
	// NameHTML, when set, is written into the heading unescaped.
	NameHTML string
}

// Page renders items as a profile activity page.
func Page(opts Options, items ...Item) []byte {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html><body>\n<nav id=\"global-nav\"></nav>\n")
	if opts.Name != "" || opts.NameHTML != "" {
		class := "text-heading-xlarge"
		if opts.Company {
			class = "org-top-card-summary__title"
		}
		heading := opts.NameHTML
		if heading == "" {
			heading = html.EscapeString(opts.Name)
		}
		fmt.Fprintf(&sb, "<h1 class=%q>%s</h1>\n", class, heading)
	}
	sb.WriteString("<main>\n")

	itemClass := "occludable-update"
	if opts.Company {
		itemClass = "feed-shared-update-v2"
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "<div class=%q>\n", itemClass)
		if it.Raw != "" {
			sb.WriteString(it.Raw)
			sb.WriteString("\n</div>\n")
			continue
		}
		if it.Repost {
			sb.WriteString("<li-icon type=\"repost-filled\"></li-icon>\n")
		}
		if it.Date != "" {
			fmt.Fprintf(&sb, "<div class=\"feed-shared-actor__sub-description\">%s</div>\n", html.EscapeString(it.Date))
		}
		if it.Content != "" {
			sb.WriteString("<div class=\"feed-shared-update-v2__description-wrapper\">\n")
			for _, line := range strings.Split(it.Content, "\n") {
				fmt.Fprintf(&sb, "<span>%s</span>\n", html.EscapeString(line))
			}
			sb.WriteString("</div>\n")
		}
		if it.SeeMore {
			sb.WriteString("<button class=\"feed-shared-inline-show-more-text__button\">…see more</button>\n")
		}
		if it.Likes != "" {
			fmt.Fprintf(&sb, "<span class=\"social-details-social-counts__reactions-count\">%s</span>\n", html.EscapeString(it.Likes))
		}
		if it.Comments != "" {
			fmt.Fprintf(&sb, "<li class=\"social-details-social-counts__comments\"><span>%s</span></li>\n", html.EscapeString(it.Comments))
		}
		if it.Shares != "" {
			fmt.Fprintf(&sb, "<span class=\"social-details-social-counts__shares-count\">%s</span>\n", html.EscapeString(it.Shares))
		}
		sb.WriteString("</div>\n")
	}
	sb.WriteString("</main>\n</body></html>\n")
	return []byte(sb.String())
}
