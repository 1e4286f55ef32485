package formatter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub-backend/internal/domains/publishing/model"
)

func newContent(body string, hashtags ...string) *model.Content {
	return &model.Content{
		Platform:    model.PlatformFacebook,
		ContentType: model.ContentTypeEducational,
		Status:      model.StatusApproved,
		Body:        body,
		Hashtags:    hashtags,
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestFormat_InstagramMovesHashtagsToEnd(t *testing.T) {
	tags := []string{"fresh", "local"}
	for i := 1; i <= 30; i++ {
		tags = append(tags, fmt.Sprintf("extra%d", i))
	}
	content := newContent("Great coffee #fresh #local today", tags...)

	got := Format(content, model.PlatformInstagram)

	require.True(t, got.IsValid, "errors: %v", got.Errors)
	parts := strings.SplitN(got.Text, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "Great coffee today", parts[0])
	assert.NotContains(t, parts[0], "#")

	block := strings.Fields(parts[1])
	assert.Len(t, block, 30)
	assert.Equal(t, "#fresh", block[0])
	assert.Equal(t, "#local", block[1])
	assert.Equal(t, "#extra28", block[29])
	assert.Len(t, got.Hashtags, 30)
	assert.Equal(t, 30, got.Metadata.HashtagCount)
	assert.True(t, containsSubstring(got.Warnings, "requires an image"))
}

func TestFormat_TwitterTruncatesLongText(t *testing.T) {
	content := newContent(strings.Repeat("a", 300))

	got := Format(content, model.PlatformTwitter)

	assert.True(t, got.IsValid)
	assert.Empty(t, got.Errors)
	assert.True(t, strings.HasSuffix(got.Text, Ellipsis))
	assert.LessOrEqual(t, utf8.RuneCountInString(got.Text), 280-SafetyBuffer)
	assert.True(t, containsSubstring(got.Warnings, "shortened"))
	assert.Equal(t, utf8.RuneCountInString(got.Text), got.Metadata.CharacterCount)
}

func TestFormat_WithoutAutoFixReportsLengthError(t *testing.T) {
	content := newContent(strings.Repeat("a", 300))

	got := FormatWithOptions(content, model.PlatformTwitter, Options{AutoFix: false})

	assert.False(t, got.IsValid)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "280")
	assert.Equal(t, 300, got.Metadata.CharacterCount)
}

func TestFormat_TruncationKeepsWholeWords(t *testing.T) {
	content := newContent(strings.Repeat("coffee ", 60))

	got := Format(content, model.PlatformTwitter)

	require.True(t, got.IsValid)
	require.True(t, strings.HasSuffix(got.Text, Ellipsis))
	for _, word := range strings.Fields(strings.TrimSuffix(got.Text, Ellipsis)) {
		assert.Equal(t, "coffee", word)
	}
}

func TestFormat_InlinePlacementKeepsText(t *testing.T) {
	content := newContent("Visit us ##today at https://example.com/menu#specials", "coffee")

	got := Format(content, model.PlatformFacebook)

	assert.Equal(t, "Visit us #today at https://example.com/menu#specials", got.Text)
	assert.Equal(t, []string{"#coffee"}, got.Hashtags)
}

func TestFormat_EndPlacementLeavesURLAnchors(t *testing.T) {
	content := newContent("Menu at https://example.com/menu#specials #brunch", "brunch")
	content.ImageURL = strPtr("https://cdn.example.com/a.jpg")

	got := Format(content, model.PlatformPinterest)

	assert.Equal(t, "Menu at https://example.com/menu#specials\n\n#brunch", got.Text)
}

func TestFormat_PinterestDropsHashtagsThatCannotFit(t *testing.T) {
	var tags []string
	for i := 0; i < 20; i++ {
		tags = append(tags, fmt.Sprintf("averyveryverylonghashtagnumber%02d", i))
	}
	content := newContent(strings.Repeat("fresh bread daily ", 40), tags...)
	content.ImageURL = strPtr("https://cdn.example.com/bread.png")

	got := Format(content, model.PlatformPinterest)

	require.True(t, got.IsValid, "errors: %v", got.Errors)
	assert.LessOrEqual(t, utf8.RuneCountInString(got.Text), 500)
	assert.Less(t, len(got.Hashtags), 20)
	assert.True(t, strings.HasSuffix(got.Text, got.Hashtags[len(got.Hashtags)-1]))
	assert.True(t, containsSubstring(got.Warnings, "hashtag(s) were removed"))
}

func TestFormat_LengthAndHashtagLimitsHoldForEveryPlatform(t *testing.T) {
	var tags []string
	for i := 0; i < 40; i++ {
		tags = append(tags, fmt.Sprintf("tag%d", i))
	}
	bodies := []string{
		"",
		"Short and sweet",
		strings.Repeat("word ", 700),
		strings.Repeat("x", 4000),
		strings.Repeat("long paragraph with #inline tags ", 150),
	}

	for _, p := range model.SupportedPlatforms() {
		rules, ok := model.ConstraintsFor(p)
		require.True(t, ok)
		for i, body := range bodies {
			got := Format(newContent(body, tags...), p)
			assert.True(t, got.IsValid, "%s body %d: %v", p, i, got.Errors)
			assert.LessOrEqual(t, utf8.RuneCountInString(got.Text), rules.MaxTextLength, "%s body %d", p, i)
			assert.LessOrEqual(t, len(got.Hashtags), rules.MaxHashtags, "%s body %d", p, i)
		}
	}
}

func TestFormat_IsIdempotent(t *testing.T) {
	inputs := []*model.Content{
		newContent("Great coffee #fresh #local today", "fresh", "local"),
		newContent(strings.Repeat("a", 300)),
		newContent(strings.Repeat("fresh bread daily ", 60), "bread", "bakery", "daily"),
		newContent("Hello ##world, welcome!", "#hi", "there"),
	}

	for _, p := range model.SupportedPlatforms() {
		for i, in := range inputs {
			first := Format(in, p)
			second := Format(newContent(first.Text, first.Hashtags...), p)
			assert.Equal(t, first.Text, second.Text, "%s input %d", p, i)
			assert.Equal(t, first.Hashtags, second.Hashtags, "%s input %d", p, i)
		}
	}
}

func TestFormat_DoesNotMutateInput(t *testing.T) {
	content := newContent("Body #tag", "tag", "other")
	content.ImageURL = strPtr("https://cdn.example.com/a.jpg")

	_ = Format(content, model.PlatformInstagram)

	assert.Equal(t, "Body #tag", content.Body)
	assert.Equal(t, []string{"tag", "other"}, content.Hashtags)
	assert.Equal(t, "https://cdn.example.com/a.jpg", *content.ImageURL)
}

func TestFormat_UnsupportedPlatform(t *testing.T) {
	got := Format(newContent("hello"), model.Platform("myspace"))

	assert.False(t, got.IsValid)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "unsupported platform")
}

func TestFormat_Warnings(t *testing.T) {
	content := newContent("THIS IS THE BEST SALE EVER SEEN IN TOWN!!!! @a @b @c @d @e @f see https://x.co/1")
	content.ImageURL = strPtr("https://cdn.example.com/promo.webp?v=2")

	got := Format(content, model.PlatformLinkedIn)

	assert.True(t, got.IsValid)
	assert.True(t, containsSubstring(got.Warnings, "Media type .webp"))
	assert.True(t, containsSubstring(got.Warnings, "mentions 6 accounts"))
	assert.True(t, containsSubstring(got.Warnings, "exclamation"))
	assert.True(t, containsSubstring(got.Warnings, "shouting"))

	ig := Format(content, model.PlatformInstagram)
	assert.True(t, containsSubstring(ig.Warnings, "not clickable"))
}

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{"#Go", "go lang", "#", "", "a", "##dev!!", "  tag  "}, 10)
	assert.Equal(t, []string{"#Go", "#golang", "#a", "#dev", "#tag"}, got)

	limited := NormalizeHashtags([]string{"one", "two", "three", "four", "five", "six"}, 5)
	assert.Equal(t, []string{"#one", "#two", "#three", "#four", "#five"}, limited)

	assert.Empty(t, NormalizeHashtags(nil, 5))
}

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "hello world", 20, "hello world"},
		{"word boundary", "hello brave new world", 15, "hello brave..."},
		{"cut lands on space", "hello world again", 14, "hello world..."},
		{"no spaces", "abcdefghij", 8, "abcde..."},
		{"trailing punctuation", "one, two, three", 11, "one, two..."},
		{"tiny limit", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateAtWord(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.limit)
		})
	}
}

func TestSuggestions(t *testing.T) {
	content := newContent("Big sale", "sale")
	content.ContentType = model.ContentTypePromotional

	got := Suggestions(content, model.PlatformFacebook)

	assert.True(t, containsSubstring(got, "consider adding detail"))
	assert.True(t, containsSubstring(got, "Include a link"))
	assert.True(t, containsSubstring(got, "images get more engagement"))

	assert.Empty(t, Suggestions(content, model.Platform("myspace")))
}

func TestSuggestions_CommunityPostsAskQuestions(t *testing.T) {
	content := newContent("Our team spent the weekend volunteering at the food bank", "community")
	content.ContentType = model.ContentTypeCommunity

	assert.True(t, containsSubstring(Suggestions(content, model.PlatformFacebook), "Ask a question"))

	content.Body = "Where should we volunteer next month?"
	assert.False(t, containsSubstring(Suggestions(content, model.PlatformFacebook), "Ask a question"))
}

func strPtr(s string) *string { return &s }

func TestFormat_WarnsOnTooManyInlineHashtags(t *testing.T) {
	content := newContent("Hiring now #go #golang #backend #remote #jobs #startup #tech")
	content.Platform = model.PlatformLinkedIn

	got := Format(content, model.PlatformLinkedIn)

	assert.True(t, got.IsValid)
	assert.Empty(t, got.Hashtags)
	assert.True(t, containsSubstring(got.Warnings, "Text contains 7 hashtags"))

	content.Body = "Hiring now #go #golang"
	got = Format(content, model.PlatformLinkedIn)
	assert.False(t, containsSubstring(got.Warnings, "Text contains"))
}
