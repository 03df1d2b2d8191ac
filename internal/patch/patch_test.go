package patch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePatch struct {
	Title   Field[string]   `json:"title"`
	Caption Field[*string]  `json:"caption"`
	Width   Field[*int]     `json:"width"`
	Order   Field[int]      `json:"order"`
	Rating  Field[float64]  `json:"rating"`
	Visible Field[bool]     `json:"visible"`
	Tags    Field[[]string] `json:"tags"`
}

func TestDecodeTracksPresence(t *testing.T) {
	var p samplePatch
	require.NoError(t, Decode([]byte(`{"title":"Hello","caption":null}`), &p))

	assert.True(t, p.Title.Set)
	assert.Equal(t, "Hello", p.Title.Value)
	assert.True(t, p.Caption.Set)
	assert.Nil(t, p.Caption.Value)
	assert.False(t, p.Width.Set)
	assert.False(t, p.Order.Set)
	assert.ElementsMatch(t, []string{"title", "caption"}, Fields(&p))
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	var p samplePatch
	require.NoError(t, Decode([]byte(`{"bogus":1,"alsoBogus":"x"}`), &p))
	assert.True(t, Empty(&p))
}

func TestDecodeCoercesScalars(t *testing.T) {
	var p samplePatch
	require.NoError(t, Decode([]byte(`{"title":42,"order":"3","rating":"4.5","visible":"false","width":"640"}`), &p))

	assert.Equal(t, "42", p.Title.Value)
	assert.Equal(t, 3, p.Order.Value)
	assert.Equal(t, 4.5, p.Rating.Value)
	assert.False(t, p.Visible.Value)
	require.NotNil(t, p.Width.Value)
	assert.Equal(t, 640, *p.Width.Value)
}

func TestDecodeRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "null into required string", body: `{"title":null}`, field: "title"},
		{name: "fractional order", body: `{"order":1.5}`, field: "order"},
		{name: "non numeric rating", body: `{"rating":"lots"}`, field: "rating"},
		{name: "tags not array", body: `{"tags":"go"}`, field: "tags"},
		{name: "tags with number", body: `{"tags":["go",1]}`, field: "tags"},
		{name: "object into string", body: `{"title":{"a":1}}`, field: "title"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p samplePatch
			err := Decode([]byte(tc.body), &p)
			require.Error(t, err)
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tc.field, fieldErr.Field)
		})
	}
}

func TestDecodeRejectsNonObjectBody(t *testing.T) {
	var p samplePatch
	err := Decode([]byte(`[1,2,3]`), &p)
	require.Error(t, err)
}

func TestOf(t *testing.T) {
	f := Of("value")
	assert.True(t, f.Set)
	assert.Equal(t, "value", f.Value)
}
