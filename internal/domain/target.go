package domain

import "strings"

// AssetVariant is one downloadable format of a target's content,
// e.g. {"MP3 Format", "https://.../game_mp3.zip"}.
type AssetVariant struct {
	Label string `json:"name"`
	URL   string `json:"url"`
}

// Target represents one catalog entry: a single downloadable soundtrack
// with its available format variants. Targets are immutable once loaded.
type Target struct {
	Name        string         `json:"name"`
	Category    string         `json:"console"`
	PageURL     string         `json:"game_page_url"`
	CoverURL    string         `json:"image_url,omitempty"`
	ReleaseDate string         `json:"release_date,omitempty"`
	Developer   string         `json:"developer,omitempty"`
	Publisher   string         `json:"publisher,omitempty"`
	Variants    []AssetVariant `json:"download_links"`
}

// ID returns the target's stable identifier. The catalog keys every
// target by its page URL, which is stable across crawls.
func (t *Target) ID() string {
	return t.PageURL
}

// HasCover reports whether the target carries a cover image locator.
func (t *Target) HasCover() bool {
	return t.CoverURL != ""
}

// SelectVariant picks the best variant per the configured priority order.
// Priority terms are tried in order; within a term the first variant whose
// label contains it (case-insensitive) wins. Returns false when no term
// matches any variant, the caller treats that as "no acceptable format",
// not an error.
func SelectVariant(variants []AssetVariant, priority []string) (AssetVariant, bool) {
	for _, term := range priority {
		term = strings.ToLower(term)
		for _, v := range variants {
			if strings.Contains(strings.ToLower(v.Label), term) {
				return v, true
			}
		}
	}
	return AssetVariant{}, false
}
