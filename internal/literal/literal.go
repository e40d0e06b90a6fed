// Package literal renders nested values into the inline argument syntax
// accepted by the catalog's GraphQL endpoint:
//
//	products:[{id:1 name:"Tee" status:IN_STOCK}{id:2 name:"Cap"}]
//
// Keys are written bare, strings are JSON-quoted, Enum values are written
// bare, and nil values are dropped together with their key.
package literal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value interface{}
}

// Object is an ordered set of fields. Output keeps the field order.
type Object []Field

// List is a sequence of values rendered as [v1 v2 ...].
type List []interface{}

// Enum is a vocabulary token rendered without quotes.
type Enum string

var (
	// ErrUnsupportedValue is returned for values with no literal form.
	ErrUnsupportedValue = errors.New("literal: unsupported value")
	// ErrInvalidEnum is returned for enum tokens that are not valid names.
	ErrInvalidEnum = errors.New("literal: invalid enum token")

	enumToken = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Set replaces the value of key, or appends it when absent.
func (o Object) Set(key string, value interface{}) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o Object) Get(key string) (interface{}, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// sequential reports whether the keys are exactly "0", "1", ... in order.
func (o Object) sequential() bool {
	if len(o) == 0 {
		return false
	}
	for i, f := range o {
		if f.Key != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

// Mutation wraps serialized arguments into a mutation document.
func Mutation(name, args string, selection ...string) string {
	var b strings.Builder
	b.WriteString("mutation{")
	b.WriteString(name)
	if args != "" {
		b.WriteString("(")
		b.WriteString(args)
		b.WriteString(")")
	}
	if len(selection) > 0 {
		b.WriteString("{")
		b.WriteString(strings.Join(selection, " "))
		b.WriteString("}")
	}
	b.WriteString("}")
	return b.String()
}

func validEnum(e Enum) error {
	if !enumToken.MatchString(string(e)) {
		return fmt.Errorf("%w: %q", ErrInvalidEnum, string(e))
	}
	return nil
}
