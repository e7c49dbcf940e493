package linkedin

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"liscraper/pkg/browser"
)

// FallbackLabel is used when no better profile name can be found.
const FallbackLabel = "LinkedIn_User"

// ResolveProfileLabel finds a human-readable name for the profile behind
// ref: the page heading if present, else the URL slug in title case.
func ResolveProfileLabel(ctx context.Context, drv browser.Driver, ref string) string {
	selectors := ProfileNameSelectors
	if IsCompany(ref) {
		selectors = CompanyNameSelectors
	}

	for _, sel := range selectors {
		elems, err := drv.QueryAll(ctx, sel)
		if err != nil || len(elems) == 0 {
			continue
		}
		text, err := elems[0].Text(ctx)
		if err != nil {
			continue
		}
		if text = strings.Join(strings.Fields(text), " "); text != "" {
			return text
		}
	}

	return LabelFromSlug(ref)
}

// LabelFromSlug turns "jane-doe-1234" into "Jane Doe 1234".
func LabelFromSlug(ref string) string {
	slug := ProfileSlug(ref)
	if slug == "" {
		return FallbackLabel
	}
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
