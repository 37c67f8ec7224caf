package celtypes

import (
	"math"
	"testing"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name     string
		input    Val
		expected int64
		errKind  ErrKind
	}{
		{"identity", &IntVal{Value: 42}, 42, ""},
		{"from uint", &UintVal{Value: 42}, 42, ""},
		{"uint too large", &UintVal{Value: math.MaxUint64}, 0, ErrRange},
		{"double truncates toward zero", &DoubleVal{Value: -1.9}, -1, ""},
		{"double NaN", &DoubleVal{Value: math.NaN()}, 0, ErrRange},
		{"double +Inf", &DoubleVal{Value: math.Inf(1)}, 0, ErrRange},
		{"double out of range", &DoubleVal{Value: 1e19}, 0, ErrRange},
		{"from string", &StringVal{Value: "-7"}, -7, ""},
		{"bad string", &StringVal{Value: "seven"}, 0, ErrInvalidArgument},
		{"from timestamp", mustTimestamp(t, "2009-02-13T23:31:30Z"), 1234567890, ""},
		{"from bool", True, 0, ErrNoSuchOverload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToInt(tt.input)
			if tt.errKind != "" {
				err, ok := result.(*EvalError)
				if !ok || err.Code != tt.errKind {
					t.Fatalf("expected %s error, got %s", tt.errKind, result)
				}
				return
			}
			iv, ok := result.(*IntVal)
			if !ok || iv.Value != tt.expected {
				t.Fatalf("expected %d, got %s", tt.expected, result)
			}
		})
	}
}

func TestToUint(t *testing.T) {
	if ToUint(&IntVal{Value: -1}).(*EvalError).Code != ErrRange {
		t.Error("negative int to uint should be a range error")
	}
	if ToUint(&IntVal{Value: 7}).(*UintVal).Value != 7 {
		t.Error("int to uint should convert")
	}
	if ToUint(&StringVal{Value: "7"}).(*UintVal).Value != 7 {
		t.Error("string to uint should convert")
	}
}

func TestToStringAndBytes(t *testing.T) {
	if ToString(&IntVal{Value: -5}).(*StringVal).Value != "-5" {
		t.Error("int to string misrendered")
	}
	if ToString(&BytesVal{Value: []byte("héllo")}).(*StringVal).Value != "héllo" {
		t.Error("UTF-8 bytes should convert to string")
	}

	invalid := ToString(&BytesVal{Value: []byte{0xff, 0xfe}})
	if err, ok := invalid.(*EvalError); !ok || err.Code != ErrInvalidArgument {
		t.Fatalf("expected invalid-argument for bad UTF-8, got %s", invalid)
	}

	if string(ToBytes(&StringVal{Value: "abc"}).(*BytesVal).Value) != "abc" {
		t.Error("string to bytes misconverted")
	}
}

func TestToStringCanonicalForms(t *testing.T) {
	d, _ := ParseDuration("2h30m")
	if got := ToString(d).(*StringVal).Value; got != "9000s" {
		t.Errorf("expected canonical duration form, got %q", got)
	}
	ts := mustTimestamp(t, "2020-06-01T12:00:00Z")
	if got := ToString(ts).(*StringVal).Value; got != "2020-06-01T12:00:00Z" {
		t.Errorf("expected RFC 3339 form, got %q", got)
	}
}

func TestToDurationAndTimestamp(t *testing.T) {
	d := ToDuration(&StringVal{Value: "90s"})
	if dv, ok := d.(*DurationVal); !ok || dv.Seconds != 90 {
		t.Fatalf("expected 90s, got %s", d)
	}

	bad := ToDuration(&StringVal{Value: "banana"})
	if err, ok := bad.(*EvalError); !ok || err.Code != ErrInvalidArgument {
		t.Fatalf("expected invalid-argument, got %s", bad)
	}

	ts := ToTimestamp(&StringVal{Value: "2020-01-01T00:00:00Z"})
	if _, ok := ts.(*TimestampVal); !ok {
		t.Fatalf("expected timestamp, got %s", ts)
	}

	epoch := ToTimestamp(&IntVal{Value: 0})
	if tv, ok := epoch.(*TimestampVal); !ok || tv.Time.Unix() != 0 {
		t.Fatalf("expected epoch, got %s", epoch)
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		input    Val
		expected string
	}{
		{&IntVal{Value: 1}, "int"},
		{&UintVal{Value: 1}, "uint"},
		{&DoubleVal{Value: 1}, "double"},
		{&StringVal{Value: ""}, "string"},
		{True, "bool"},
		{Null, "null_type"},
		{NewList(nil), "list"},
	}
	for _, tt := range tests {
		got := TypeOf(tt.input)
		tv, ok := got.(*TypeVal)
		if !ok || tv.Name != tt.expected {
			t.Errorf("expected type %q, got %s", tt.expected, got)
		}
	}
}
