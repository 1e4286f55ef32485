package model

// ================================================
// PLATFORM CONSTRAINTS
// ================================================

type HashtagPlacement string

const (
	// Hashtags stay wherever the author wrote them.
	PlacementInline HashtagPlacement = "inline"
	// Inline hashtags are removed and the normalized list is appended as a block.
	PlacementEnd HashtagPlacement = "end"
)

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PlatformConstraints struct {
	Platform            Platform         `json:"platform"`
	MaxTextLength       int              `json:"max_text_length"`
	MaxHashtags         int              `json:"max_hashtags"`
	RequiresImage       bool             `json:"requires_image"`
	SupportsVideo       bool             `json:"supports_video"`
	SupportsLinkPreview bool             `json:"supports_link_preview"`
	SupportedMediaTypes []string         `json:"supported_media_types"`
	OptimalImage        ImageDimensions  `json:"optimal_image_size"`
	HashtagPlacement    HashtagPlacement `json:"hashtag_placement"`
}

var platformConstraints = map[Platform]PlatformConstraints{
	PlatformFacebook: {
		Platform:            PlatformFacebook,
		MaxTextLength:       63206,
		MaxHashtags:         30,
		RequiresImage:       false,
		SupportsVideo:       true,
		SupportsLinkPreview: true,
		SupportedMediaTypes: []string{"jpg", "jpeg", "png", "gif", "mp4", "mov"},
		OptimalImage:        ImageDimensions{Width: 1200, Height: 630},
		HashtagPlacement:    PlacementInline,
	},
	PlatformInstagram: {
		Platform:            PlatformInstagram,
		MaxTextLength:       2200,
		MaxHashtags:         30,
		RequiresImage:       true,
		SupportsVideo:       true,
		SupportsLinkPreview: false,
		SupportedMediaTypes: []string{"jpg", "jpeg", "png", "mp4", "mov"},
		OptimalImage:        ImageDimensions{Width: 1080, Height: 1080},
		HashtagPlacement:    PlacementEnd,
	},
	PlatformLinkedIn: {
		Platform:            PlatformLinkedIn,
		MaxTextLength:       3000,
		MaxHashtags:         5,
		RequiresImage:       false,
		SupportsVideo:       true,
		SupportsLinkPreview: true,
		SupportedMediaTypes: []string{"jpg", "jpeg", "png", "gif", "mp4"},
		OptimalImage:        ImageDimensions{Width: 1200, Height: 627},
		HashtagPlacement:    PlacementInline,
	},
	PlatformTwitter: {
		Platform:            PlatformTwitter,
		MaxTextLength:       280,
		MaxHashtags:         10,
		RequiresImage:       false,
		SupportsVideo:       true,
		SupportsLinkPreview: true,
		SupportedMediaTypes: []string{"jpg", "jpeg", "png", "gif", "webp", "mp4"},
		OptimalImage:        ImageDimensions{Width: 1200, Height: 675},
		HashtagPlacement:    PlacementInline,
	},
	PlatformPinterest: {
		Platform:            PlatformPinterest,
		MaxTextLength:       500,
		MaxHashtags:         20,
		RequiresImage:       true,
		SupportsVideo:       true,
		SupportsLinkPreview: false,
		SupportedMediaTypes: []string{"jpg", "jpeg", "png", "webp"},
		OptimalImage:        ImageDimensions{Width: 1000, Height: 1500},
		HashtagPlacement:    PlacementEnd,
	},
}

// ConstraintsFor returns a copy of the rules for p; callers may not mutate the table.
func ConstraintsFor(p Platform) (PlatformConstraints, bool) {
	c, ok := platformConstraints[p]
	if !ok {
		return PlatformConstraints{}, false
	}
	c.SupportedMediaTypes = append([]string(nil), c.SupportedMediaTypes...)
	return c, true
}

func AllConstraints() map[Platform]PlatformConstraints {
	out := make(map[Platform]PlatformConstraints, len(platformConstraints))
	for p := range platformConstraints {
		out[p], _ = ConstraintsFor(p)
	}
	return out
}

func (c PlatformConstraints) SupportsMediaType(ext string) bool {
	for _, t := range c.SupportedMediaTypes {
		if t == ext {
			return true
		}
	}
	return false
}
