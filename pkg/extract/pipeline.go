// Package extract turns a single feed item into a Post.
//
// Each field is resolved by an ordered list of strategies; the first one
// that yields text wins. Only the repost check and content resolution can
// reject an item. Date and engagement fall back to placeholders.
package extract

import (
	"context"
	"fmt"
	"strings"

	"liscraper/pkg/browser"
	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
)

// SkipError reports that an item produced no post.
type SkipError struct {
	Reason models.SkipReason
	Cause  error
}

func (e *SkipError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("skipped (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("skipped (%s)", e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Cause
}

func skip(reason models.SkipReason, cause error) *SkipError {
	return &SkipError{Reason: reason, Cause: cause}
}

// Pipeline extracts posts from feed items.
type Pipeline struct {
	pacing  pacing.Policy
	logger  logger.Logger
	content []Strategy
	date    []Strategy
	likes   []Strategy
	comment []Strategy
	shares  []Strategy
}

// NewPipeline creates a pipeline using LinkedIn's selectors.
func NewPipeline(p pacing.Policy, log logger.Logger) *Pipeline {
	dates := BySelectors(linkedin.DateSelectors)
	for i, s := range dates {
		dates[i] = Map(s, CutAt(linkedin.DateSeparator))
	}
	counters := func(sels []string) []Strategy {
		out := BySelectors(sels)
		for i, s := range out {
			out[i] = Map(s, CountToken)
		}
		return out
	}

	return &Pipeline{
		pacing:  p,
		logger:  log,
		content: append(BySelectors(linkedin.ContentSelectors), FilteredFullText),
		date:    dates,
		likes:   counters(linkedin.LikeSelectors),
		comment: counters(linkedin.CommentSelectors),
		shares:  counters(linkedin.ShareSelectors),
	}
}

// Extract builds a Post from item. A rejected item yields a *SkipError.
func (p *Pipeline) Extract(ctx context.Context, item browser.Element) (models.Post, error) {
	p.expand(ctx, item)
	if err := ctx.Err(); err != nil {
		return models.Post{}, err
	}

	reposted, err := p.isRepost(ctx, item)
	if err != nil {
		return models.Post{}, skip(models.SkipNoContent, err)
	}
	if reposted {
		return models.Post{}, skip(models.SkipReposted, nil)
	}

	content, err := FirstText(ctx, item, p.content...)
	if err != nil {
		return models.Post{}, skip(models.SkipNoContent, err)
	}

	post, ok := models.NewPost(content, p.resolveDate(ctx, item), p.resolveEngagement(ctx, item))
	if !ok {
		return models.Post{}, skip(models.SkipNoContent, nil)
	}
	return post, nil
}

// expand clicks the item's own "see more" buttons so content is complete.
func (p *Pipeline) expand(ctx context.Context, item browser.Element) {
	buttons, err := item.QueryAll(ctx, linkedin.SeeMoreButton)
	if err != nil {
		p.logger.WithError(err).Debug("Failed to look up see-more buttons")
		return
	}
	for _, b := range buttons {
		if err := ExpandButton(ctx, p.pacing, b); err != nil {
			p.logger.WithError(err).Debug("Failed to expand post")
		}
	}
}

// ExpandButton scrolls to a "see more" control and clicks it. Buttons with
// other labels are left alone.
func ExpandButton(ctx context.Context, pc pacing.Policy, b browser.Element) error {
	label, err := b.Text(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(label), linkedin.SeeMoreText) {
		return nil
	}
	if err := b.ScrollIntoView(ctx); err != nil {
		return err
	}
	if err := pc.Wait(ctx, pacing.ExpandBefore); err != nil {
		return err
	}
	if err := b.Click(ctx); err != nil {
		return err
	}
	return pc.Wait(ctx, pacing.ExpandAfter)
}

func (p *Pipeline) isRepost(ctx context.Context, item browser.Element) (bool, error) {
	icons, err := item.QueryAll(ctx, linkedin.RepostIcon)
	if err != nil {
		return false, err
	}
	if len(icons) > 0 {
		return true, nil
	}

	text, err := item.Text(ctx)
	if err != nil {
		return false, err
	}
	for _, phrase := range linkedin.RepostPhrases {
		if strings.Contains(text, phrase) {
			return true, nil
		}
	}
	return false, nil
}

func (p *Pipeline) resolveDate(ctx context.Context, item browser.Element) string {
	date, err := FirstText(ctx, item, p.date...)
	if err != nil {
		p.logger.WithError(err).Debug("Failed to read post date")
	}
	if date == "" {
		return models.UnknownDate
	}
	return date
}

func (p *Pipeline) resolveEngagement(ctx context.Context, item browser.Element) models.Engagement {
	e := models.DefaultEngagement()
	if v, _ := FirstText(ctx, item, p.likes...); v != "" {
		e.Likes = v
	}
	if v, _ := FirstText(ctx, item, p.comment...); v != "" {
		e.Comments = v
	}
	if v, _ := FirstText(ctx, item, p.shares...); v != "" {
		e.Shares = v
	}
	if !e.IsDefault() {
		return e
	}

	text, err := item.Text(ctx)
	if err != nil {
		return e
	}
	if v := countFromText(text, "likes"); v != "" {
		e.Likes = v
	}
	if v := countFromText(text, "comments"); v != "" {
		e.Comments = v
	}
	if v := countFromText(text, "shares"); v != "" {
		e.Shares = v
	}
	return e
}
