package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/internal/patch"
)

func TestProjectPatchAppliesOnlySuppliedFields(t *testing.T) {
	link := "https://example.com"
	item := ProjectItem{
		ID:           "prj_1",
		Title:        "Old",
		Description:  "Keep me",
		Link:         &link,
		Technologies: StringList{"go"},
		Layout:       "layout1",
		CategoryIDs:  StringList{"cat_1"},
	}

	var p ProjectItemPatch
	require.NoError(t, patch.Decode([]byte(`{"title":"New","link":null,"categoryIds":["cat_2","cat_2","","cat_3"]}`), &p))
	p.Apply(&item)

	assert.Equal(t, "New", item.Title)
	assert.Equal(t, "Keep me", item.Description)
	assert.Nil(t, item.Link)
	assert.Equal(t, StringList{"go"}, item.Technologies)
	assert.Equal(t, StringList{"cat_2", "cat_3"}, item.CategoryIDs)
}

func TestCategoryPatchReplacesProjects(t *testing.T) {
	category := Category{ID: "cat_1", Name: "Web", ProjectIDs: StringList{"prj_1"}}
	CategoryPatch{ProjectIDs: patch.Of([]string{"prj_2"})}.Apply(&category)
	assert.Equal(t, StringList{"prj_2"}, category.ProjectIDs)
	assert.Equal(t, "Web", category.Name)
}

func TestStringListNeverMarshalsNull(t *testing.T) {
	var list StringList
	payload, err := list.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(payload))

	value, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}

func TestStringListScan(t *testing.T) {
	var list StringList
	require.NoError(t, list.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, list)

	require.NoError(t, list.Scan(nil))
	assert.Equal(t, StringList{}, list)

	require.NoError(t, list.Scan("null"))
	assert.Equal(t, StringList{}, list)

	assert.Error(t, list.Scan(42))
}

func TestRecordAccessors(t *testing.T) {
	id := "portfolio/abc"
	image := ExperienceDetailImage{ID: "exi_1", ExperienceItemID: "exp_1", ImagePublicID: &id}
	assert.Equal(t, "exi_1", image.Key())
	assert.Equal(t, "exp_1", image.Scope())
	assert.Equal(t, "portfolio/abc", image.ImageID())

	assert.Equal(t, "", Section{ID: "sec_1"}.Scope())
	assert.Equal(t, "", SkillItem{}.ImageID())
}
