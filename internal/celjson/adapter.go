// Package celjson converts between JSON documents and CEL values.
//
// Decoding maps JSON null/bool/number/string/array/object onto the CEL
// value algebra; integral numbers become int, everything else double, and
// strings stay strings (timestamps and durations require an explicit
// conversion in the expression). Encoding is the reverse, with bytes as
// base64 and timestamp/duration in their canonical string forms.
package celjson

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

// Decode converts a JSON document into a CEL value.
func Decode(doc string) (celtypes.Val, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return DecodeResult(gjson.Parse(doc))
}

// DecodeResult converts a parsed gjson node into a CEL value.
func DecodeResult(r gjson.Result) (celtypes.Val, error) {
	switch r.Type {
	case gjson.Null:
		return celtypes.Null, nil
	case gjson.False:
		return celtypes.False, nil
	case gjson.True:
		return celtypes.True, nil
	case gjson.String:
		return &celtypes.StringVal{Value: r.Str}, nil
	case gjson.Number:
		if isIntegral(r.Raw) {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return &celtypes.IntVal{Value: i}, nil
			}
		}
		return &celtypes.DoubleVal{Value: r.Num}, nil
	case gjson.JSON:
		if r.IsArray() {
			var elems []celtypes.Val
			var convErr error
			r.ForEach(func(_, item gjson.Result) bool {
				v, err := DecodeResult(item)
				if err != nil {
					convErr = err
					return false
				}
				elems = append(elems, v)
				return true
			})
			if convErr != nil {
				return nil, convErr
			}
			return celtypes.NewList(elems), nil
		}
		var pairs []celtypes.Val
		var convErr error
		r.ForEach(func(key, item gjson.Result) bool {
			v, err := DecodeResult(item)
			if err != nil {
				convErr = err
				return false
			}
			pairs = append(pairs, &celtypes.StringVal{Value: key.Str}, v)
			return true
		})
		if convErr != nil {
			return nil, convErr
		}
		m, merr := celtypes.NewMap(pairs)
		if merr != nil {
			return nil, fmt.Errorf("%s", merr.Msg)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported JSON node %q", r.Raw)
}

// isIntegral reports whether a JSON number literal has no fraction or
// exponent part.
func isIntegral(raw string) bool {
	return !strings.ContainsAny(raw, ".eE")
}

// Encode converts a CEL value into a JSON document.
func Encode(v celtypes.Val) (string, error) {
	return encodeValue(v)
}

func encodeValue(v celtypes.Val) (string, error) {
	switch o := v.(type) {
	case *celtypes.NullVal:
		return "null", nil
	case *celtypes.BoolVal:
		return o.String(), nil
	case *celtypes.IntVal:
		return strconv.FormatInt(o.Value, 10), nil
	case *celtypes.UintVal:
		return strconv.FormatUint(o.Value, 10), nil
	case *celtypes.DoubleVal:
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return "", fmt.Errorf("%s has no JSON form", o)
		}
		return strconv.FormatFloat(o.Value, 'g', -1, 64), nil
	case *celtypes.StringVal:
		return encodeString(o.Value)
	case *celtypes.BytesVal:
		return encodeString(base64.StdEncoding.EncodeToString(o.Value))
	case *celtypes.TimestampVal:
		return encodeString(o.String())
	case *celtypes.DurationVal:
		return encodeString(o.String())
	case *celtypes.TypeVal:
		return encodeString(o.Name)
	case *celtypes.ListVal:
		doc := "[]"
		for _, elem := range o.Elems {
			raw, err := encodeValue(elem)
			if err != nil {
				return "", err
			}
			doc, err = sjson.SetRaw(doc, "-1", raw)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	case *celtypes.MapVal:
		doc := "{}"
		for _, key := range o.Keys() {
			raw, err := encodeValue(o.Index(key))
			if err != nil {
				return "", err
			}
			doc, err = sjson.SetRaw(doc, escapeKey(jsonKey(key)), raw)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	case *celtypes.MessageVal:
		return encodeMessage(o)
	case *celtypes.EvalError:
		return "", fmt.Errorf("%s", o.Error())
	}
	return "", fmt.Errorf("type %s has no JSON form", celtypes.TypeOf(v))
}

// encodeMessage serializes a message as an object of its set fields.
func encodeMessage(o *celtypes.MessageVal) (string, error) {
	doc := "{}"
	for _, name := range o.FieldNames() {
		raw, err := encodeValue(o.Field(name))
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, escapeKey(name), raw)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

// jsonKey stringifies a map key; non-string keys take their display form.
func jsonKey(key celtypes.Val) string {
	if s, ok := key.(*celtypes.StringVal); ok {
		return s.Value
	}
	return key.String()
}

// escapeKey escapes sjson path metacharacters in an object key.
func escapeKey(key string) string {
	return pathEscaper.Replace(key)
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

// encodeString produces a JSON string literal with standard escaping.
func encodeString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
