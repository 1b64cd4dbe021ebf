package geometry

import "encoding/json"

// OptionalRect distinguishes "no rectangle" from a present but empty one.
// It is comparable with ==, which the overlay state relies on.
type OptionalRect struct {
	rect  Rect
	valid bool
}

func Some(r Rect) OptionalRect {
	return OptionalRect{rect: r, valid: true}
}

func None() OptionalRect {
	return OptionalRect{}
}

// Get returns the rectangle and whether one is present
func (o OptionalRect) Get() (Rect, bool) {
	return o.rect, o.valid
}

func (o OptionalRect) IsPresent() bool {
	return o.valid
}

func (o OptionalRect) String() string {
	if !o.valid {
		return "none"
	}
	return o.rect.String()
}

// MarshalJSON encodes an absent rectangle as null
func (o OptionalRect) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.rect)
}

func (o *OptionalRect) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var r Rect
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*o = Some(r)
	return nil
}
