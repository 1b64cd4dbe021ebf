package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectSize(t *testing.T) {
	r := NewRect(10, 20, 200, 60)
	assert.Equal(t, 200.0, r.Width())
	assert.Equal(t, 60.0, r.Height())
	assert.Equal(t, 12000.0, r.Area())
	assert.False(t, r.IsEmpty())

	inverted := Rect{Left: 50, Top: 50, Right: 10, Bottom: 10}
	assert.Equal(t, 0.0, inverted.Width())
	assert.Equal(t, 0.0, inverted.Area())
	assert.True(t, inverted.IsEmpty())
}

func TestClampTo(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{
			name: "inside",
			in:   Rect{Left: 10, Top: 10, Right: 50, Bottom: 50},
			want: Rect{Left: 10, Top: 10, Right: 50, Bottom: 50},
		},
		{
			name: "overflows every edge",
			in:   Rect{Left: -12, Top: -12, Right: 1100, Bottom: 2000},
			want: Rect{Left: 0, Top: 0, Right: 1080, Bottom: 1920},
		},
		{
			name: "entirely off screen",
			in:   Rect{Left: 2000, Top: 3000, Right: 2100, Bottom: 3100},
			want: Rect{Left: 1080, Top: 1920, Right: 1080, Bottom: 1920},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ClampTo(1080, 1920)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Right, got.Left)
			assert.GreaterOrEqual(t, got.Bottom, got.Top)
		})
	}
}

func TestContainsAndExpand(t *testing.T) {
	outer := NewRect(0, 0, 200, 60)
	inner := NewRect(90, 20, 20, 20)
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))

	padded := inner.Expand(12)
	assert.Equal(t, NewRect(78, 8, 44, 44), padded)
	assert.True(t, outer.Contains(padded))
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.0, Fraction(100, 0))
	assert.Equal(t, 0.0, Fraction(-5, 100))
	assert.Equal(t, 0.25, Fraction(25, 100))
	assert.Equal(t, 1.0, Fraction(500, 100))
}

func TestOptionalRect(t *testing.T) {
	none := None()
	_, ok := none.Get()
	assert.False(t, ok)

	zero := Some(Rect{})
	r, ok := zero.Get()
	require.True(t, ok)
	assert.True(t, r.IsEmpty())
	assert.NotEqual(t, none, zero, "absent and present-but-empty must differ")

	assert.Equal(t, Some(NewRect(1, 2, 3, 4)), Some(NewRect(1, 2, 3, 4)))

	data, err := json.Marshal(struct {
		Hole OptionalRect `json:"hole"`
	}{Hole: none})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hole":null}`, string(data))

	var decoded OptionalRect
	require.NoError(t, json.Unmarshal([]byte(`{"left":1,"top":2,"right":3,"bottom":4}`), &decoded))
	assert.Equal(t, Some(Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}), decoded)
}
