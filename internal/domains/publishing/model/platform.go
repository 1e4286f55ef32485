package model

import (
	"fmt"
	"strings"
)

// ================================================
// PLATFORM IDENTIFIERS
// ================================================

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformPinterest Platform = "pinterest"
)

var supportedPlatforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformTwitter,
	PlatformPinterest,
}

// SupportedPlatforms returns every platform the publisher knows, in a stable order.
func SupportedPlatforms() []Platform {
	out := make([]Platform, len(supportedPlatforms))
	copy(out, supportedPlatforms)
	return out
}

// ParsePlatform is the only way a raw identifier from a request or a database
// row becomes a Platform.
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsSupported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, raw)
	}
	return p, nil
}

// ParsePlatforms parses a list and drops duplicates while keeping input order.
func ParsePlatforms(raw []string) ([]Platform, error) {
	out := make([]Platform, 0, len(raw))
	seen := make(map[Platform]bool, len(raw))
	for _, r := range raw {
		p, err := ParsePlatform(r)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func (p Platform) IsSupported() bool {
	for _, s := range supportedPlatforms {
		if s == p {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// DisplayName is used in human readable warnings.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformFacebook:
		return "Facebook"
	case PlatformInstagram:
		return "Instagram"
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformTwitter:
		return "Twitter"
	case PlatformPinterest:
		return "Pinterest"
	default:
		return string(p)
	}
}
