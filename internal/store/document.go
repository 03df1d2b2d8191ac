package store

// SectionDocument is one section of the aggregate document with every nested
// collection attached, each sorted by order.
type SectionDocument struct {
	Section
	TextBlocks       []TextBlock       `json:"textBlocks"`
	ImageBlocks      []ImageBlock      `json:"imageBlocks"`
	ProjectItems     []ProjectItem     `json:"projectItems"`
	SkillItems       []SkillItem       `json:"skillItems"`
	SkillImages      []SkillImage      `json:"skillImages"`
	ExperienceItems  []ExperienceItem  `json:"experienceItems"`
	EducationItems   []EducationItem   `json:"educationItems"`
	TestimonialItems []TestimonialItem `json:"testimonialItems"`
	ContactInfoItems []ContactInfoItem `json:"contactInfoItems"`
	CustomBlocks     []CustomBlock     `json:"customBlocks"`
}

// NewSectionDocument wraps a section with empty, non-nil collections.
func NewSectionDocument(section Section) SectionDocument {
	return SectionDocument{
		Section:          section,
		TextBlocks:       []TextBlock{},
		ImageBlocks:      []ImageBlock{},
		ProjectItems:     []ProjectItem{},
		SkillItems:       []SkillItem{},
		SkillImages:      []SkillImage{},
		ExperienceItems:  []ExperienceItem{},
		EducationItems:   []EducationItem{},
		TestimonialItems: []TestimonialItem{},
		ContactInfoItems: []ContactInfoItem{},
		CustomBlocks:     []CustomBlock{},
	}
}
