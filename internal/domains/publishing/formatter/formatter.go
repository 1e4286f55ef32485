// Package formatter turns stored content into platform-ready text.
//
// Every function here is pure: the same content and platform always
// produce the same FormattedContent, and the input content is never
// modified.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"socialhub-backend/internal/domains/publishing/model"
)

const (
	// SafetyBuffer is kept free below a platform's hard limit when shortening text.
	SafetyBuffer = 5
	Ellipsis     = "..."

	hashtagBlockSeparator = "\n\n"
)

var (
	// A hashtag token only starts at the beginning of the text or after whitespace,
	// so fragments such as URL anchors are left alone.
	inlineHashtagPattern = regexp.MustCompile(`(^|\s)#+[\p{L}\p{N}_]+`)
	spaceRunPattern      = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesPattern    = regexp.MustCompile(`\n{3,}`)
)

type Options struct {
	// AutoFix shortens text that exceeds the platform limit and re-validates.
	AutoFix bool
}

// Format formats content for platform with auto-fix enabled.
func Format(content *model.Content, platform model.Platform) model.FormattedContent {
	return FormatWithOptions(content, platform, Options{AutoFix: true})
}

func FormatWithOptions(content *model.Content, platform model.Platform, opts Options) model.FormattedContent {
	rules, ok := model.ConstraintsFor(platform)
	if !ok {
		return model.FormattedContent{
			Hashtags: []string{},
			Warnings: []string{},
			Errors:   []string{fmt.Sprintf("unsupported platform: %s", platform)},
			Metadata: model.FormatMetadata{Platform: platform},
		}
	}

	hashtags := NormalizeHashtags(content.Hashtags, rules.MaxHashtags)
	result := model.FormattedContent{
		Text:     arrange(content.Body, hashtags, rules),
		Hashtags: hashtags,
		ImageURL: copyString(content.ImageURL),
	}
	check(&result, rules)

	if !result.IsValid && opts.AutoFix {
		result = autoFix(result, content, rules)
	}

	result.Metadata = model.FormatMetadata{
		CharacterCount: utf8.RuneCountInString(result.Text),
		HashtagCount:   len(result.Hashtags),
		Platform:       platform,
	}
	return result
}

// NormalizeHashtags cleans raw tags into "#word" form, drops the unusable ones
// and keeps at most max of them in input order.
func NormalizeHashtags(tags []string, max int) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if max >= 0 && len(out) >= max {
			break
		}
		cleaned := cleanHashtag(tag)
		if utf8.RuneCountInString(cleaned) <= 1 {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

func cleanHashtag(tag string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(tag) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '#' {
			b.WriteRune(r)
		}
	}
	return "#" + strings.TrimLeft(b.String(), "#")
}

// ================================================
// TEXT ARRANGEMENT
// ================================================

// arrange builds the post text. Inline platforms keep hashtags where the author
// wrote them; the normalized list is reported but not inserted into the text.
func arrange(body string, hashtags []string, rules model.PlatformConstraints) string {
	if rules.HashtagPlacement == model.PlacementEnd {
		return appendHashtagBlock(stripInlineHashtags(body), hashtags)
	}
	return strings.TrimSpace(normalizeInlineHashtags(body))
}

func appendHashtagBlock(body string, hashtags []string) string {
	if len(hashtags) == 0 {
		return body
	}
	block := strings.Join(hashtags, " ")
	if body == "" {
		return block
	}
	return body + hashtagBlockSeparator + block
}

func stripInlineHashtags(body string) string {
	stripped := inlineHashtagPattern.ReplaceAllStringFunc(body, func(match string) string {
		return leadingSpace(match)
	})
	return tidyWhitespace(stripped)
}

func normalizeInlineHashtags(body string) string {
	return inlineHashtagPattern.ReplaceAllStringFunc(body, func(match string) string {
		lead := leadingSpace(match)
		return lead + "#" + strings.TrimLeft(match[len(lead):], "#")
	})
}

func leadingSpace(match string) string {
	idx := strings.IndexByte(match, '#')
	if idx < 0 {
		return ""
	}
	return match[:idx]
}

func tidyWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
	}
	joined := blankLinesPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(joined)
}

// ================================================
// AUTO-FIX
// ================================================

func autoFix(result model.FormattedContent, content *model.Content, rules model.PlatformConstraints) model.FormattedContent {
	limit := rules.MaxTextLength - SafetyBuffer
	originalText := result.Text
	hashtags := result.Hashtags

	var text string
	if rules.HashtagPlacement == model.PlacementEnd && len(hashtags) > 0 {
		text, hashtags = fitWithHashtagBlock(stripInlineHashtags(content.Body), hashtags, limit)
	} else {
		text = TruncateAtWord(originalText, limit)
	}

	fixed := model.FormattedContent{
		Text:     text,
		Hashtags: hashtags,
		ImageURL: result.ImageURL,
	}
	check(&fixed, rules)

	var notes []string
	if text != originalText {
		notes = append(notes, fmt.Sprintf("Content was shortened to fit the %d character limit on %s",
			rules.MaxTextLength, rules.Platform.DisplayName()))
	}
	if dropped := len(result.Hashtags) - len(hashtags); dropped > 0 {
		notes = append(notes, fmt.Sprintf("%d hashtag(s) were removed to fit the %s character limit",
			dropped, rules.Platform.DisplayName()))
	}
	fixed.Warnings = append(notes, fixed.Warnings...)
	if fixed.Warnings == nil {
		fixed.Warnings = []string{}
	}
	return fixed
}

// fitWithHashtagBlock shortens the body so body + block fits in limit, dropping
// trailing hashtags when the block alone leaves no room for the body.
func fitWithHashtagBlock(body string, hashtags []string, limit int) (string, []string) {
	minBody := utf8.RuneCountInString(Ellipsis) + 1
	for len(hashtags) > 0 {
		block := strings.Join(hashtags, " ")
		blockLen := utf8.RuneCountInString(block)
		if body == "" {
			if blockLen <= limit {
				return block, hashtags
			}
		} else if budget := limit - blockLen - utf8.RuneCountInString(hashtagBlockSeparator); budget >= minBody {
			return TruncateAtWord(body, budget) + hashtagBlockSeparator + block, hashtags
		}
		hashtags = hashtags[:len(hashtags)-1]
	}
	return TruncateAtWord(body, limit), []string{}
}

// TruncateAtWord returns s unchanged when it fits in limit runes. Otherwise it
// cuts at the last word boundary that leaves room for the ellipsis, falling back
// to a hard cut when the text has no usable boundary.
func TruncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	ellipsis := []rune(Ellipsis)
	cutAt := limit - len(ellipsis)
	if cutAt <= 0 {
		return string(runes[:limit])
	}

	cut := runes[:cutAt]
	if next := runes[cutAt]; !unicode.IsSpace(next) && !unicode.IsPunct(next) {
		if idx := lastSpace(cut); idx > 0 {
			cut = cut[:idx]
		}
	}
	trimmed := strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,;:-", r)
	})
	if trimmed == "" {
		trimmed = string(runes[:cutAt])
	}
	return trimmed + Ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
