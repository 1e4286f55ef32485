package formatter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"socialhub-backend/internal/domains/publishing/model"
)

// Rough engagement sweet spots per platform, in characters.
var idealLength = map[model.Platform][2]int{
	model.PlatformFacebook:  {40, 250},
	model.PlatformInstagram: {138, 1000},
	model.PlatformLinkedIn:  {150, 1300},
	model.PlatformTwitter:   {71, 240},
	model.PlatformPinterest: {100, 300},
}

var idealHashtags = map[model.Platform][2]int{
	model.PlatformFacebook:  {1, 3},
	model.PlatformInstagram: {5, 15},
	model.PlatformLinkedIn:  {3, 5},
	model.PlatformTwitter:   {1, 2},
	model.PlatformPinterest: {2, 8},
}

// Suggestions returns optimization advice for content on platform. Unlike
// warnings, suggestions describe what would perform better, not what will fail.
func Suggestions(content *model.Content, platform model.Platform) []string {
	rules, ok := model.ConstraintsFor(platform)
	if !ok {
		return []string{}
	}
	formatted := Format(content, platform)
	name := platform.DisplayName()
	out := []string{}

	if r, ok := idealLength[platform]; ok {
		n := utf8.RuneCountInString(stripInlineHashtags(content.Body))
		switch {
		case n < r[0]:
			out = append(out, fmt.Sprintf("Posts of %d-%d characters tend to perform best on %s; consider adding detail", r[0], r[1], name))
		case n > r[1]:
			out = append(out, fmt.Sprintf("Posts of %d-%d characters tend to perform best on %s; consider tightening the copy", r[0], r[1], name))
		}
	}

	if r, ok := idealHashtags[platform]; ok {
		n := len(formatted.Hashtags)
		switch {
		case n < r[0]:
			out = append(out, fmt.Sprintf("Add %d-%d relevant hashtags to improve discovery on %s", r[0], r[1], name))
		case n > r[1]:
			out = append(out, fmt.Sprintf("Using more than %d hashtags on %s can reduce engagement", r[1], name))
		}
	}

	if content.ImageURL == nil {
		if !rules.RequiresImage {
			out = append(out, fmt.Sprintf("Posts with images get more engagement on %s", name))
		}
	} else {
		out = append(out, fmt.Sprintf("Use images sized %dx%d for best results on %s",
			rules.OptimalImage.Width, rules.OptimalImage.Height, name))
	}

	hasLink := linkPattern.MatchString(content.Body)
	if content.ContentType == model.ContentTypePromotional && !hasLink && rules.SupportsLinkPreview {
		out = append(out, "Include a link so followers can act on the promotion")
	}
	if content.ContentType == model.ContentTypeCommunity && !strings.Contains(content.Body, "?") {
		out = append(out, "Ask a question to invite replies")
	}
	if hasLink && !rules.SupportsLinkPreview {
		out = append(out, fmt.Sprintf("Move links to your %s profile; captions do not link", name))
	}
	return out
}
