package ranking

// BoostConfig holds the additive boosts applied by Booster.
type BoostConfig struct {
	ArticleMatch   float64 `yaml:"article_match"`   // default: 0.5
	ChapterMatch   float64 `yaml:"chapter_match"`   // default: 0.3
	MainBody       float64 `yaml:"main_body"`       // default: 0.1
	Preamble       float64 `yaml:"preamble"`        // default: 0.05
	CaseReferences float64 `yaml:"case_references"` // default: 0.15
}

// DefaultBoostConfig returns the default boosts.
func DefaultBoostConfig() *BoostConfig {
	return &BoostConfig{
		ArticleMatch:   0.5,
		ChapterMatch:   0.3,
		MainBody:       0.1,
		Preamble:       0.05,
		CaseReferences: 0.15,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *BoostConfig) ApplyDefaults() {
	d := DefaultBoostConfig()
	if c.ArticleMatch == 0 {
		c.ArticleMatch = d.ArticleMatch
	}
	if c.ChapterMatch == 0 {
		c.ChapterMatch = d.ChapterMatch
	}
	if c.MainBody == 0 {
		c.MainBody = d.MainBody
	}
	if c.Preamble == 0 {
		c.Preamble = d.Preamble
	}
	if c.CaseReferences == 0 {
		c.CaseReferences = d.CaseReferences
	}
}
