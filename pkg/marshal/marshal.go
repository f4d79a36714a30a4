// Package marshal converts generic decoded JSON values (maps, slices, float64
// numbers) returned by the transport into typed Go values.
package marshal

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

var ErrNilData = errors.New("no data to unmarshal")

// Unmarshal loads a decoded response body into v, which must be a pointer.
// Struct fields are matched by their json tag. Numbers are converted to the
// target numeric type, so float64 values fill int fields.
func Unmarshal(data, v any) error {
	if data == nil {
		return ErrNilData
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("failed to unmarshal %T into %T: %w", data, v, err)
	}
	return nil
}

// SmartUnmarshal decodes respond into I, passing wrapperError through so it
// can wrap a call directly:
//
//	res, err := marshal.SmartUnmarshal[T](client.Cypher(ctx, q))
func SmartUnmarshal[I any](respond any, wrapperError error) (output I, err error) {
	if wrapperError != nil {
		return output, wrapperError
	}
	if respond == nil {
		return output, nil
	}
	err = Unmarshal(respond, &output)
	return output, err
}
