// Package patch decodes sparse JSON update bodies into typed, presence-aware
// fields. A key absent from the body leaves its Field unset; a present key is
// coerced to the field's Go type.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Field carries a value together with whether the client supplied it.
type Field[T any] struct {
	Set   bool
	Value T
}

// Of returns a set field holding value.
func Of[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// FieldError reports a value that could not be coerced to its field type.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

var errNull = errors.New("must not be null")

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	var zero T
	f.Value = zero

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		if reflect.TypeOf(&f.Value).Elem().Kind() == reflect.Pointer {
			return nil
		}
		return errNull
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("invalid value")
	}
	return coerce(raw, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func coerce(raw any, target any) error {
	switch out := target.(type) {
	case *string:
		value, err := asString(raw)
		if err != nil {
			return err
		}
		*out = value
	case **string:
		value, err := asString(raw)
		if err != nil {
			return err
		}
		*out = &value
	case *int:
		value, err := asInt(raw)
		if err != nil {
			return err
		}
		*out = value
	case **int:
		value, err := asInt(raw)
		if err != nil {
			return err
		}
		*out = &value
	case *float64:
		value, err := asFloat(raw)
		if err != nil {
			return err
		}
		*out = value
	case *bool:
		value, err := asBool(raw)
		if err != nil {
			return err
		}
		*out = value
	case *[]string:
		value, err := asStrings(raw)
		if err != nil {
			return err
		}
		*out = value
	default:
		return fmt.Errorf("unsupported field type %T", target)
	}
	return nil
}

func asString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", errors.New("must be a string")
	}
}

func asFloat(raw any) (float64, error) {
	var parsed float64
	var err error
	switch v := raw.(type) {
	case json.Number:
		parsed, err = v.Float64()
	case string:
		parsed, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, errors.New("must be a number")
	}
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, errors.New("must be a finite number")
	}
	return parsed, nil
}

func asInt(raw any) (int, error) {
	parsed, err := asFloat(raw)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if parsed != math.Trunc(parsed) || parsed > math.MaxInt32 || parsed < math.MinInt32 {
		return 0, errors.New("must be an integer")
	}
	return int(parsed), nil
}

func asBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, errors.New("must be a boolean")
		}
		return parsed, nil
	case json.Number:
		switch v.String() {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
	}
	return false, errors.New("must be a boolean")
}

func asStrings(raw any) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.New("must be an array of strings")
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		value, ok := item.(string)
		if !ok {
			return nil, errors.New("must be an array of strings")
		}
		values = append(values, value)
	}
	return values, nil
}

// Decode fills the Field members of the struct pointed to by target from a
// JSON object. Keys that match no field are ignored. The returned error is a
// *FieldError naming the offending key.
func Decode(data []byte, target any) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return &FieldError{Message: "body must be a JSON object"}
	}

	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("patch: decode target must be a struct pointer, got %T", target)
	}
	value = value.Elem()
	structType := value.Type()

	for i := 0; i < structType.NumField(); i++ {
		name := jsonName(structType.Field(i))
		if name == "" {
			continue
		}
		raw, ok := object[name]
		if !ok {
			continue
		}
		unmarshaler, ok := value.Field(i).Addr().Interface().(json.Unmarshaler)
		if !ok {
			continue
		}
		if err := unmarshaler.UnmarshalJSON(raw); err != nil {
			return &FieldError{Field: name, Message: err.Error()}
		}
	}
	return nil
}

// Fields lists the JSON names of the fields that were supplied.
func Fields(target any) []string {
	value := reflect.Indirect(reflect.ValueOf(target))
	if value.Kind() != reflect.Struct {
		return nil
	}
	structType := value.Type()
	names := make([]string, 0)
	for i := 0; i < structType.NumField(); i++ {
		name := jsonName(structType.Field(i))
		if name == "" {
			continue
		}
		set := value.Field(i).FieldByName("Set")
		if set.IsValid() && set.Kind() == reflect.Bool && set.Bool() {
			names = append(names, name)
		}
	}
	return names
}

// Empty reports whether no field was supplied.
func Empty(target any) bool {
	return len(Fields(target)) == 0
}

func jsonName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
