// Package corelog defines the Logger collaborator the core emits structured
// events through: INFO (suggestion chosen, target concept, band), DEBUG
// (score deltas, schedule transitions), and WARN (fallback used, unknown
// concept filtered), without ever deciding how those events are rendered or
// shipped. The default implementation wraps the standard log package with
// a bracketed-level-prefix convention (log.Printf("[DEBUG] ...")).
package corelog

import (
	"fmt"
	"log"
	"sort"
)

// Field is one key/value pair attached to a structured log event.
type Field struct {
	Key   string
	Value any
}

// F is a short constructor for a Field, used at call sites the way
// structured-logging libraries use field constructors, without taking on
// that dependency for a handful of call sites.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger receives structured events from the core. Implementations must be
// safe for concurrent use; the core itself is single-writer per learner but
// may share one Logger across learners.
type Logger interface {
	Info(event string, fields ...Field)
	Debug(event string, fields ...Field)
	Warn(event string, fields ...Field)
}

// Standard wraps the stdlib log package using a
// "[DEBUG] message key=value ..." convention.
type Standard struct{}

// NewStandard returns the default stdlib-backed Logger.
func NewStandard() *Standard { return &Standard{} }

func (Standard) Info(event string, fields ...Field) { std("INFO", event, fields) }

func (Standard) Debug(event string, fields ...Field) { std("DEBUG", event, fields) }

func (Standard) Warn(event string, fields ...Field) { std("WARN", event, fields) }

func std(level, event string, fields []Field) {
	log.Printf("[%s] %s%s", level, event, renderFields(fields))
}

func renderFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	out := ""
	for _, f := range fields {
		out += " " + f.Key + "=" + toString(f.Value)
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		sort.Strings(t)
		s := "["
		for i, e := range t {
			if i > 0 {
				s += ","
			}
			s += e
		}
		return s + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
