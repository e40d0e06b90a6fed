package literal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ecomsync/internal/logger"
)

const (
	CodeSerializeField = "ESLZ_101"
	CodeSerializeValue = "ESLZ_102"
)

// Serializer renders literal trees. Fields that cannot be rendered are
// logged and left out; serialization itself never fails.
type Serializer struct {
	logger *logger.Logger
}

func NewSerializer(logger *logger.Logger) *Serializer {
	return &Serializer{logger: logger}
}

// Serialize renders value under key. A list of several objects becomes
// key:[{...}{...}], a list holding a single object becomes key:{...}, and
// anything else key:<value>. An empty key renders the value alone. A nil
// value, or one that cannot be rendered, yields "".
func (s *Serializer) Serialize(key string, value interface{}) string {
	if objs, ok := objectList(value); ok {
		switch len(objs) {
		case 0:
		case 1:
			return prefix(key, s.Object(objs[0]))
		default:
			var b strings.Builder
			b.WriteByte('[')
			for _, o := range objs {
				b.WriteString(s.Object(o))
			}
			b.WriteByte(']')
			return prefix(key, b.String())
		}
	}

	rendered, omit, err := s.render(value)
	if err != nil {
		s.logger.Errorw("literal value could not be serialized",
			"code", CodeSerializeValue, "key", key, "value", fmt.Sprintf("%v", value), "error", err)
		return ""
	}
	if omit {
		return ""
	}
	return prefix(key, rendered)
}

// Object renders o as {k1:v1 k2:v2}, or as [v1 v2] when its keys are the
// sequence 0..n-1.
func (s *Serializer) Object(o Object) string {
	if o.sequential() {
		values := make(List, len(o))
		for i, f := range o {
			values[i] = f.Value
		}
		return s.list(values)
	}

	parts := make([]string, 0, len(o))
	for _, f := range o {
		rendered, omit, err := s.field(f)
		if err != nil {
			s.logger.Errorw("literal field could not be serialized",
				"code", CodeSerializeField, "key", f.Key, "value", fmt.Sprintf("%v", f.Value), "error", err)
			continue
		}
		if omit {
			continue
		}
		parts = append(parts, f.Key+":"+rendered)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (s *Serializer) field(f Field) (out string, omit bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnsupportedValue, r)
		}
	}()
	return s.render(f.Value)
}

func (s *Serializer) list(values List) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		rendered, omit, err := s.render(v)
		if err != nil {
			s.logger.Errorw("literal list item could not be serialized",
				"code", CodeSerializeField, "index", i, "value", fmt.Sprintf("%v", v), "error", err)
			continue
		}
		if omit {
			continue
		}
		parts = append(parts, rendered)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (s *Serializer) render(value interface{}) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", true, nil
	case Object:
		return s.Object(v), false, nil
	case map[string]interface{}:
		return s.Object(fromMap(v)), false, nil
	case List:
		return s.list(v), false, nil
	case []interface{}:
		return s.list(List(v)), false, nil
	case Enum:
		if err := validEnum(v); err != nil {
			return "", false, err
		}
		return string(v), false, nil
	case bool:
		return strconv.FormatBool(v), false, nil
	case decimal.Decimal:
		return v.String(), false, nil
	case string:
		return quote(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "", true, nil
		}
		return s.render(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), false, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", true, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		items := make(List, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return s.list(items), false, nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return "", false, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}

	return quote(value)
}

// quote JSON-encodes v. Strings come out quoted and escaped; other values
// keep their JSON form.
func quote(v interface{}) (string, bool, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), false, nil
}

func prefix(key, rendered string) string {
	if key == "" {
		return rendered
	}
	return key + ":" + rendered
}

// objectList returns the elements of value when it is a list made only of
// objects.
func objectList(value interface{}) ([]Object, bool) {
	var items []interface{}
	switch v := value.(type) {
	case List:
		items = v
	case []interface{}:
		items = v
	case []Object:
		return v, len(v) > 0
	case []map[string]interface{}:
		objs := make([]Object, len(v))
		for i, m := range v {
			objs[i] = fromMap(m)
		}
		return objs, len(objs) > 0
	default:
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}
	objs := make([]Object, 0, len(items))
	for _, item := range items {
		switch o := item.(type) {
		case Object:
			objs = append(objs, o)
		case map[string]interface{}:
			objs = append(objs, fromMap(o))
		default:
			return nil, false
		}
	}
	return objs, true
}

// fromMap orders a plain map by key, numerically where both keys are
// integers; Go maps carry no insertion order.
func fromMap(m map[string]interface{}) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	o := make(Object, 0, len(keys))
	for _, k := range keys {
		o = append(o, Field{Key: k, Value: m[k]})
	}
	return o
}
