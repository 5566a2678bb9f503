package models

// Source is one citation attached to a death record. URL is the unique key
// within a record; merges never produce two sources with the same URL.
type Source struct {
	URL             string   `json:"url"`
	Publisher       *string  `json:"publisher"`
	PublishDate     *string  `json:"publish_date"`
	AccessDate      *string  `json:"access_date"`
	SourceType      *string  `json:"source_type"`
	CredibilityTier *string  `json:"credibility_tier"`
	Snippet         *string  `json:"snippet"`
	ClaimTags       []string `json:"claim_tags"`
}

// HasClaimTag reports whether the source carries the given claim tag.
func (s *Source) HasClaimTag(tag string) bool {
	for _, t := range s.ClaimTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the source.
func (s Source) Clone() Source {
	copied := s
	copied.Publisher = cloneString(s.Publisher)
	copied.PublishDate = cloneString(s.PublishDate)
	copied.AccessDate = cloneString(s.AccessDate)
	copied.SourceType = cloneString(s.SourceType)
	copied.CredibilityTier = cloneString(s.CredibilityTier)
	copied.Snippet = cloneString(s.Snippet)
	copied.ClaimTags = append([]string(nil), s.ClaimTags...)
	return copied
}
