package formatter

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"socialhub-backend/internal/domains/publishing/model"
)

const (
	maxRecommendedMentions = 5
	maxRecommendedLinks    = 2
	maxExclamations        = 3
	shoutingMinLetters     = 20
	shoutingRatio          = 0.5
)

var (
	mentionPattern = regexp.MustCompile(`(^|\s)@[\p{L}\p{N}_.]+`)
	linkPattern    = regexp.MustCompile(`https?://\S+`)
)

// check fills Errors, Warnings and IsValid on result. Errors are hard
// platform violations; warnings never affect validity.
func check(result *model.FormattedContent, rules model.PlatformConstraints) {
	errs := []string{}
	name := rules.Platform.DisplayName()

	if n := utf8.RuneCountInString(result.Text); n > rules.MaxTextLength {
		errs = append(errs, fmt.Sprintf("Text exceeds %s limit of %d characters (%d)", name, rules.MaxTextLength, n))
	}
	if n := len(result.Hashtags); n > rules.MaxHashtags {
		errs = append(errs, fmt.Sprintf("Too many hashtags for %s: %d (maximum %d)", name, n, rules.MaxHashtags))
	}

	result.Errors = errs
	result.Warnings = warnings(result, rules)
	result.IsValid = len(errs) == 0
}

func warnings(result *model.FormattedContent, rules model.PlatformConstraints) []string {
	out := []string{}
	name := rules.Platform.DisplayName()
	text := result.Text

	// the hard limit applies to the hashtag list only
	if rules.HashtagPlacement == model.PlacementInline {
		if n := len(inlineHashtagPattern.FindAllString(text, -1)); n > rules.MaxHashtags {
			out = append(out, fmt.Sprintf("Text contains %d hashtags; %s recommends at most %d", n, name, rules.MaxHashtags))
		}
	}
	if rules.RequiresImage && result.ImageURL == nil {
		out = append(out, fmt.Sprintf("%s requires an image; publishing will fail without one", name))
	}
	if result.ImageURL != nil {
		if ext := mediaExtension(*result.ImageURL); ext != "" && !rules.SupportsMediaType(ext) {
			out = append(out, fmt.Sprintf("Media type .%s is not supported on %s", ext, name))
		}
	}

	links := linkPattern.FindAllString(text, -1)
	if len(links) > 0 && !rules.SupportsLinkPreview {
		out = append(out, fmt.Sprintf("Links are not clickable in %s posts", name))
	}
	if len(links) > maxRecommendedLinks {
		out = append(out, fmt.Sprintf("Post contains %d links; consider keeping it to %d or fewer", len(links), maxRecommendedLinks))
	}

	if n := len(mentionPattern.FindAllString(text, -1)); n > maxRecommendedMentions {
		out = append(out, fmt.Sprintf("Post mentions %d accounts; more than %d may be flagged as spam", n, maxRecommendedMentions))
	}

	if strings.Count(text, "!") > maxExclamations && rules.Platform == model.PlatformLinkedIn {
		out = append(out, "Excessive exclamation marks may read as unprofessional on LinkedIn")
	}
	if isShouting(stripLinks(text)) {
		out = append(out, "Excessive capital letters may read as shouting")
	}
	return out
}

func isShouting(text string) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters < shoutingMinLetters {
		return false
	}
	return float64(upper)/float64(letters) > shoutingRatio
}

func stripLinks(text string) string {
	return linkPattern.ReplaceAllString(text, "")
}

// mediaExtension returns the lower-cased extension of a media reference, ignoring
// query strings. References without an extension return "".
func mediaExtension(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
