package builtins

import (
	"time"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

func registerDateTimeFuncs(r *Registry) {
	accessors := []struct {
		name string
		// field extracts the component from a zoned wall-clock time.
		field func(t time.Time) int64
		// total extracts the duration form; nil when the accessor has no
		// duration overload.
		total func(d *celtypes.DurationVal) int64
		desc  string
	}{
		{
			name:  "getFullYear",
			field: func(t time.Time) int64 { return int64(t.Year()) },
			desc:  "Year of the timestamp",
		},
		{
			name:  "getMonth",
			field: func(t time.Time) int64 { return int64(t.Month()) - 1 },
			desc:  "Month of the timestamp, 0-based",
		},
		{
			name:  "getDate",
			field: func(t time.Time) int64 { return int64(t.Day()) },
			desc:  "Day of month, 1-based",
		},
		{
			name:  "getDayOfMonth",
			field: func(t time.Time) int64 { return int64(t.Day()) - 1 },
			desc:  "Day of month, 0-based",
		},
		{
			name:  "getDayOfYear",
			field: func(t time.Time) int64 { return int64(t.YearDay()) - 1 },
			desc:  "Day of year, 0-based",
		},
		{
			name:  "getDayOfWeek",
			field: func(t time.Time) int64 { return int64(t.Weekday()) },
			desc:  "Day of week, 0 is Sunday",
		},
		{
			name:  "getHours",
			field: func(t time.Time) int64 { return int64(t.Hour()) },
			total: func(d *celtypes.DurationVal) int64 { return d.Seconds / 3600 },
			desc:  "Hour of day, or a duration as whole hours",
		},
		{
			name:  "getMinutes",
			field: func(t time.Time) int64 { return int64(t.Minute()) },
			total: func(d *celtypes.DurationVal) int64 { return d.Seconds / 60 },
			desc:  "Minute of hour, or a duration as whole minutes",
		},
		{
			name:  "getSeconds",
			field: func(t time.Time) int64 { return int64(t.Second()) },
			total: func(d *celtypes.DurationVal) int64 { return d.Seconds },
			desc:  "Second of minute, or a duration as whole seconds",
		},
		{
			name:  "getMilliseconds",
			field: func(t time.Time) int64 { return int64(t.Nanosecond()) / int64(time.Millisecond) },
			total: func(d *celtypes.DurationVal) int64 {
				return d.Seconds*1000 + int64(d.Nanos)/int64(time.Millisecond)
			},
			desc: "Millisecond of second, or a duration as whole milliseconds",
		},
	}

	for _, acc := range accessors {
		field, total := acc.field, acc.total
		r.Register(&FunctionInfo{
			Name:        acc.name,
			Function:    timeAccessor(acc.name, field, total),
			Category:    CategoryDateTime,
			MinArgs:     1,
			MaxArgs:     2,
			Description: acc.desc,
		})
	}
}

// timeAccessor builds a get* implementation over timestamps (with an
// optional timezone argument) and, when total is non-nil, durations.
func timeAccessor(name string, field func(time.Time) int64, total func(*celtypes.DurationVal) int64) BuiltinFunc {
	return func(args []celtypes.Val) celtypes.Val {
		switch recv := args[0].(type) {
		case *celtypes.TimestampVal:
			loc := time.UTC
			if len(args) == 2 {
				tz, ok := args[1].(*celtypes.StringVal)
				if !ok {
					return celtypes.NoSuchOverload(name, args[0], args[1])
				}
				resolved, err := celtypes.ResolveTimezone(tz.Value)
				if err != nil {
					return err
				}
				loc = resolved
			}
			return &celtypes.IntVal{Value: field(recv.In(loc))}
		case *celtypes.DurationVal:
			if total == nil || len(args) != 1 {
				return celtypes.NoSuchUnaryOverload(name, args[0])
			}
			return &celtypes.IntVal{Value: total(recv)}
		}
		return celtypes.NoSuchUnaryOverload(name, args[0])
	}
}
