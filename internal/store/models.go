package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Record is implemented by every ordered content row.
type Record interface {
	Key() string
	// Scope is the parent id that bounds the row's ordering; empty for
	// top-level collections.
	Scope() string
	// ImageID is the remote asset id paired with the row's image, if any.
	ImageID() string
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
}

type Section struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Order   int    `json:"order"`
	Visible bool   `json:"visible"`
}

type TextBlock struct {
	ID         string  `json:"id"`
	SectionID  string  `json:"sectionId"`
	Content    string  `json:"content"`
	Order      int     `json:"order"`
	FontSize   *string `json:"fontSize"`
	FontFamily *string `json:"fontFamily"`
}

type ImageBlock struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"sectionId"`
	Src           string  `json:"src"`
	ImagePublicID *string `json:"imagePublicId"`
	Width         *int    `json:"width"`
	Height        *int    `json:"height"`
	Caption       *string `json:"caption"`
	Order         int     `json:"order"`
}

type ProjectItem struct {
	ID            string     `json:"id"`
	SectionID     string     `json:"sectionId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ImageSrc      *string    `json:"imageSrc"`
	ImagePublicID *string    `json:"imagePublicId"`
	Link          *string    `json:"link"`
	GithubURL     *string    `json:"githubUrl"`
	Technologies  StringList `json:"technologies"`
	Layout        string     `json:"layout"`
	Order         int        `json:"order"`
	CategoryIDs   StringList `json:"categoryIds"`
}

type Category struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Order      int        `json:"order"`
	ProjectIDs StringList `json:"projectIds"`
}

type SkillItem struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"sectionId"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	ImageSrc      *string `json:"imageSrc"`
	ImagePublicID *string `json:"imagePublicId"`
	Order         int     `json:"order"`
}

type SkillImage struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"sectionId"`
	Src           string  `json:"src"`
	ImagePublicID *string `json:"imagePublicId"`
	Alt           *string `json:"alt"`
	Order         int     `json:"order"`
}

type ExperienceItem struct {
	ID            string                  `json:"id"`
	SectionID     string                  `json:"sectionId"`
	Title         string                  `json:"title"`
	Company       string                  `json:"company"`
	Location      *string                 `json:"location"`
	StartDate     string                  `json:"startDate"`
	EndDate       *string                 `json:"endDate"`
	Description   string                  `json:"description"`
	ImageSrc      *string                 `json:"imageSrc"`
	ImagePublicID *string                 `json:"imagePublicId"`
	Order         int                     `json:"order"`
	DetailImages  []ExperienceDetailImage `json:"detailImages"`
}

type ExperienceDetailImage struct {
	ID               string  `json:"id"`
	ExperienceItemID string  `json:"experienceItemId"`
	Src              string  `json:"src"`
	ImagePublicID    *string `json:"imagePublicId"`
	Caption          *string `json:"caption"`
	Order            int     `json:"order"`
}

type EducationItem struct {
	ID            string           `json:"id"`
	SectionID     string           `json:"sectionId"`
	School        string           `json:"school"`
	Degree        string           `json:"degree"`
	Field         *string          `json:"field"`
	StartDate     string           `json:"startDate"`
	EndDate       *string          `json:"endDate"`
	Description   string           `json:"description"`
	ImageSrc      *string          `json:"imageSrc"`
	ImagePublicID *string          `json:"imagePublicId"`
	Order         int              `json:"order"`
	Images        []EducationImage `json:"images"`
}

type EducationImage struct {
	ID              string  `json:"id"`
	EducationItemID string  `json:"educationItemId"`
	Src             string  `json:"src"`
	ImagePublicID   *string `json:"imagePublicId"`
	Caption         *string `json:"caption"`
	Order           int     `json:"order"`
}

type TestimonialItem struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"sectionId"`
	Name          string  `json:"name"`
	Role          *string `json:"role"`
	Company       *string `json:"company"`
	Content       string  `json:"content"`
	Rating        float64 `json:"rating"`
	ImageSrc      *string `json:"imageSrc"`
	ImagePublicID *string `json:"imagePublicId"`
	Order         int     `json:"order"`
}

type ContactInfoItem struct {
	ID        string  `json:"id"`
	SectionID string  `json:"sectionId"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	Label     *string `json:"label"`
	Order     int     `json:"order"`
}

type CustomBlock struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"sectionId"`
	Type          string  `json:"type"`
	Content       *string `json:"content"`
	ImageSrc      *string `json:"imageSrc"`
	ImagePublicID *string `json:"imagePublicId"`
	Order         int     `json:"order"`
}

type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PendingAssetDeletion is a remote asset whose delete failed and is queued
// for retry.
type PendingAssetDeletion struct {
	PublicID      string    `json:"publicId"`
	Reason        string    `json:"reason"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"lastError"`
	NextAttemptAt time.Time `json:"nextAttemptAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s Section) Key() string     { return s.ID }
func (s Section) Scope() string   { return "" }
func (s Section) ImageID() string { return "" }

func (b TextBlock) Key() string     { return b.ID }
func (b TextBlock) Scope() string   { return b.SectionID }
func (b TextBlock) ImageID() string { return "" }

func (b ImageBlock) Key() string     { return b.ID }
func (b ImageBlock) Scope() string   { return b.SectionID }
func (b ImageBlock) ImageID() string { return deref(b.ImagePublicID) }

func (p ProjectItem) Key() string     { return p.ID }
func (p ProjectItem) Scope() string   { return p.SectionID }
func (p ProjectItem) ImageID() string { return deref(p.ImagePublicID) }

func (c Category) Key() string     { return c.ID }
func (c Category) Scope() string   { return "" }
func (c Category) ImageID() string { return "" }

func (s SkillItem) Key() string     { return s.ID }
func (s SkillItem) Scope() string   { return s.SectionID }
func (s SkillItem) ImageID() string { return deref(s.ImagePublicID) }

func (s SkillImage) Key() string     { return s.ID }
func (s SkillImage) Scope() string   { return s.SectionID }
func (s SkillImage) ImageID() string { return deref(s.ImagePublicID) }

func (e ExperienceItem) Key() string     { return e.ID }
func (e ExperienceItem) Scope() string   { return e.SectionID }
func (e ExperienceItem) ImageID() string { return deref(e.ImagePublicID) }

func (e ExperienceDetailImage) Key() string     { return e.ID }
func (e ExperienceDetailImage) Scope() string   { return e.ExperienceItemID }
func (e ExperienceDetailImage) ImageID() string { return deref(e.ImagePublicID) }

func (e EducationItem) Key() string     { return e.ID }
func (e EducationItem) Scope() string   { return e.SectionID }
func (e EducationItem) ImageID() string { return deref(e.ImagePublicID) }

func (e EducationImage) Key() string     { return e.ID }
func (e EducationImage) Scope() string   { return e.EducationItemID }
func (e EducationImage) ImageID() string { return deref(e.ImagePublicID) }

func (t TestimonialItem) Key() string     { return t.ID }
func (t TestimonialItem) Scope() string   { return t.SectionID }
func (t TestimonialItem) ImageID() string { return deref(t.ImagePublicID) }

func (c ContactInfoItem) Key() string     { return c.ID }
func (c ContactInfoItem) Scope() string   { return c.SectionID }
func (c ContactInfoItem) ImageID() string { return "" }

func (c CustomBlock) Key() string     { return c.ID }
func (c CustomBlock) Scope() string   { return c.SectionID }
func (c CustomBlock) ImageID() string { return deref(c.ImagePublicID) }

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// StringList is a string slice stored as a JSON array. It never marshals to
// null.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	payload, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func (l *StringList) Scan(src any) error {
	var payload []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var values []string
	if err := json.Unmarshal(payload, &values); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	*l = values
	return nil
}
