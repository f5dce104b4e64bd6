package model

// Booth is a venue entity a user can be recommended to visit.
type Booth struct {
	ID          string   `json:"id" yaml:"id" koanf:"id"`
	Name        string   `json:"name" yaml:"name" koanf:"name"`
	Description string   `json:"description" yaml:"description" koanf:"description"`
	Tags        []string `json:"tags" yaml:"tags" koanf:"tags"`
	LookingFor  []string `json:"looking_for" yaml:"looking_for" koanf:"looking_for"`
}

// Normalized returns a copy whose tags and wanted skills use the same term
// form as interactions. The description is left as written.
func (b Booth) Normalized() Booth { //nolint:gocritic // value receiver returns a modified copy
	b.Tags = NormalizeTerms(b.Tags)
	b.LookingFor = NormalizeTerms(b.LookingFor)
	return b
}

// ScoredBooth is a scoring result. It is never persisted as-is.
type ScoredBooth struct {
	Booth        Booth    `json:"booth"`
	Score        int      `json:"score"`
	MatchReasons []string `json:"match_reasons"`
	BasedOnTags  []string `json:"based_on_tags"`
}
