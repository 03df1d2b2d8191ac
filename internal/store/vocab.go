package store

import "slices"

var (
	SectionTypes     = []string{"hero", "introduction", "education", "skills", "experience", "projects", "testimonials", "contact", "custom"}
	ContactTypes     = []string{"email", "phone", "location", "linkedin", "github", "website", "twitter", "other"}
	ProjectLayouts   = []string{"layout1", "layout2"}
	CustomBlockTypes = []string{"text", "image"}
)

const DefaultProjectLayout = "layout1"

func ValidSectionType(value string) bool     { return slices.Contains(SectionTypes, value) }
func ValidContactType(value string) bool     { return slices.Contains(ContactTypes, value) }
func ValidProjectLayout(value string) bool   { return slices.Contains(ProjectLayouts, value) }
func ValidCustomBlockType(value string) bool { return slices.Contains(CustomBlockTypes, value) }
