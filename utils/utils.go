// Package utils converts between Go structs and the loosely typed documents
// exchanged with stores.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// EncodeRecord converts a struct (or pointer to struct) into a document using
// its json tags. Nested objects are kept as json.RawMessage so stores that
// persist them as a single column receive their exact JSON.
func EncodeRecord[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("EncodeRecord: failed to marshal record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(jsonBytes, &fields); err != nil {
		return nil, fmt.Errorf("EncodeRecord: failed to unmarshal record: %w", err)
	}

	doc := make(map[string]any, len(fields))
	for key, v := range fields {
		nested, ok := v.(map[string]any)
		if !ok {
			doc[key] = v
			continue
		}
		raw, err := json.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("EncodeRecord: failed to re-marshal field '%s': %w", key, err)
		}
		doc[key] = json.RawMessage(raw)
	}
	return doc, nil
}

// DecodeDocument converts a store document into T, which must be a struct or a
// pointer to a struct. Fields are matched by json tag.
func DecodeDocument[T any](doc map[string]any) (T, error) {
	var zero T
	if doc == nil {
		return zero, fmt.Errorf("DecodeDocument: document cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ == nil {
		return zero, fmt.Errorf("DecodeDocument: target type must be a struct, got interface")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("DecodeDocument: target type must be a struct (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("DecodeDocument: failed to marshal document: %w", err)
	}
	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("DecodeDocument: failed to unmarshal into %s: %w", typ.Name(), err)
	}
	return result, nil
}
