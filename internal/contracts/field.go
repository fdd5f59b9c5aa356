package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Field is an optional numeric value with provenance.
// ⭐ SSOT: 결측(absent)과 0을 구분하는 유일한 수치 타입
//
// JSON accepts null, a bare number, or {"value": ..., "source": ...}.
type Field struct {
	Value  *float64 `json:"value"`
	Source string   `json:"source,omitempty"`
}

// NewField returns a present field
func NewField(v float64) Field {
	return Field{Value: &v}
}

// NewFieldFrom returns a present field tagged with its source
func NewFieldFrom(v float64, source string) Field {
	return Field{Value: &v, Source: source}
}

// Has reports whether the field carries a finite value
func (f Field) Has() bool {
	return f.Value != nil && !math.IsNaN(*f.Value) && !math.IsInf(*f.Value, 0)
}

// Get returns the value and whether it is present
func (f Field) Get() (float64, bool) {
	if !f.Has() {
		return 0, false
	}
	return *f.Value, true
}

// Or returns the value or def when absent
func (f Field) Or(def float64) float64 {
	if v, ok := f.Get(); ok {
		return v
	}
	return def
}

// Positive returns the value only if present and > 0
func (f Field) Positive() (float64, bool) {
	v, ok := f.Get()
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// MarshalJSON writes null for absent fields
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Has() {
		return []byte("null"), nil
	}
	type plain Field
	return json.Marshal(plain(f))
}

// UnmarshalJSON accepts both the object shape and a bare number
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = Field{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			Value  *float64 `json:"value"`
			Source *string  `json:"source"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode field object: %w", err)
		}
		f.Value = obj.Value
		if obj.Source != nil {
			f.Source = *obj.Source
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode field value: %w", err)
	}
	f.Value = &v
	return nil
}

// TextField is an optional string value with provenance
type TextField struct {
	Value  *string `json:"value"`
	Source string  `json:"source,omitempty"`
}

// NewTextField returns a present text field
func NewTextField(v string) TextField {
	return TextField{Value: &v}
}

// Get returns the value and whether it is present and non-empty
func (f TextField) Get() (string, bool) {
	if f.Value == nil || *f.Value == "" {
		return "", false
	}
	return *f.Value, true
}

// MarshalJSON writes null for absent fields
func (f TextField) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	type plain TextField
	return json.Marshal(plain(f))
}

// UnmarshalJSON accepts both the object shape and a bare string
func (f *TextField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = TextField{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			Value  *string `json:"value"`
			Source *string `json:"source"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode text field object: %w", err)
		}
		f.Value = obj.Value
		if obj.Source != nil {
			f.Source = *obj.Source
		}
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode text field value: %w", err)
	}
	f.Value = &v
	return nil
}
