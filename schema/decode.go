package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a generic value (as produced by encoding/json or Normalize)
// into out, a pointer to a Go value. Struct fields are matched by their
// json tag; float64 numbers convert into integer fields.
func Decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("schema: build decoder: %w", err)
	}

	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("schema: decode: %w", err)
	}

	return nil
}
