package jwt

import (
	"bytes"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/goccy/go-json"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// MaxSafeInteger is the largest integer that survives a round trip
// through IEEE 754 double precision JSON numbers
const MaxSafeInteger = 1<<53 - 1

// ExcludeAll removes all properties from the claims
const ExcludeAll = "*"

// Claims provides generic claims on map
type Claims map[string]any

// Registered provides the registered claims of an issued token
type Registered struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	ID        string `json:"jti,omitempty"`
	KeyID     string `json:"kid,omitempty"`
}

// Add new claims to the map
func (c Claims) Add(val ...any) error {
	for _, i := range val {
		if i == nil {
			continue
		}
		switch m := i.(type) {
		case map[string]any:
			c.merge(m)
		case Claims:
			c.merge(m)
		case gojwt.MapClaims:
			c.merge(m)
		default:
			if reflect.Indirect(reflect.ValueOf(i)).Kind() == reflect.Struct {
				m, err := normalize(i)
				if err != nil {
					return errors.WithStack(err)
				}
				c.merge(m)
			} else {
				return errors.Errorf("unsupported claims interface")
			}
		}
	}
	return nil
}

func (c Claims) merge(m map[string]any) {
	for k, v := range m {
		c[k] = v
	}
}

func normalize(i any) (map[string]any, error) {
	m := make(map[string]any)

	raw, err := json.Marshal(i)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, errors.WithStack(err)
	}

	return m, nil
}

// String will return the named claim as a string,
// if the underlying type is not a string,
// it will try and co-oerce it to a string.
func (c Claims) String(k string) string {
	v := c[k]
	if v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	default:
		return xlog.EscapedString(v)
	}
}

// StringValue returns the named claim only if it is a string
func (c Claims) StringValue(k string) (string, bool) {
	s, ok := c[k].(string)
	return s, ok
}

// Time returns the named NumericDate claim,
// or nil if the value is not a safe integer
func (c Claims) Time(k string) *time.Time {
	unix, ok := SafeInteger(c[k])
	if !ok {
		return nil
	}
	t := time.Unix(unix, 0)
	return &t
}

// SafeInteger returns the value as int64, if it is a JSON number with
// integral value in the range of safe integers
func SafeInteger(v any) (int64, bool) {
	switch tv := v.(type) {
	case int:
		return safeInt64(int64(tv))
	case int32:
		return int64(tv), true
	case int64:
		return safeInt64(tv)
	case uint:
		if uint64(tv) > MaxSafeInteger {
			return 0, false
		}
		return int64(tv), true
	case uint32:
		return int64(tv), true
	case uint64:
		if tv > MaxSafeInteger {
			return 0, false
		}
		return int64(tv), true
	case float64:
		return safeFloat(tv)
	case float32:
		return safeFloat(float64(tv))
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return safeInt64(i)
		}
		f, err := tv.Float64()
		if err != nil {
			return 0, false
		}
		return safeFloat(f)
	default:
		return 0, false
	}
}

func safeInt64(i int64) (int64, bool) {
	if i > MaxSafeInteger || i < -MaxSafeInteger {
		return 0, false
	}
	return i, true
}

func safeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f || math.Abs(f) > MaxSafeInteger {
		return 0, false
	}
	return int64(f), true
}

// Property is a name/value pair to add to the claims
type Property struct {
	Name  string
	Value any
}

var propertyRegex = regexp.MustCompile(`^([^:=+]+)(:|=|@)(.*)$`)

// ParseProperty parses the property definition:
//
//	name:value  string value
//	name=int    integer value
//	name@int    integer value, relative to now in seconds
//
// Integers must be in canonical decimal form.
func ParseProperty(s string, now time.Time) (*Property, error) {
	m := propertyRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Errorf("invalid property %q: expected name:value, name=int or name@int", s)
	}

	p := &Property{Name: m[1]}
	switch m[2] {
	case ":":
		p.Value = m[3]
	default:
		i, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil || strconv.FormatInt(i, 10) != m[3] {
			return nil, errors.Errorf("invalid property %q: value must be an integer", s)
		}
		if _, ok := safeInt64(i); !ok {
			return nil, errors.Errorf("invalid property %q: integer out of range", s)
		}
		if m[2] == "@" {
			i += now.Unix()
		}
		p.Value = i
	}
	return p, nil
}

// ParseProperties parses the list of property definitions
func ParseProperties(list []string, now time.Time) ([]*Property, error) {
	props := make([]*Property, 0, len(list))
	for _, s := range list {
		p, err := ParseProperty(s, now)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// Apply sets the properties, then removes the excluded names.
// ExcludeAll removes every claim collected so far.
func (c Claims) Apply(props []*Property, exclude []string) {
	for _, p := range props {
		c[p.Name] = p.Value
	}
	for _, name := range exclude {
		if name == ExcludeAll {
			for k := range c {
				delete(c, k)
			}
			continue
		}
		delete(c, name)
	}
}
