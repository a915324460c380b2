// Package query turns typed list filters into the canonical query string the
// backend expects, and back.
package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	tagName   = "query"
	undefined = "undefined"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SortStyle is how an endpoint spells the sort direction.
type SortStyle int

const (
	SortWords   SortStyle = iota // asc | desc
	SortNumeric                  // 1 | -1
)

func ParseSortOrder(raw string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc", "1":
		return Asc, true
	case "desc", "-1":
		return Desc, true
	}
	return "", false
}

func (o SortOrder) Format(style SortStyle) string {
	if style == SortNumeric {
		if o == Asc {
			return "1"
		}
		return "-1"
	}
	return string(o)
}

type Params struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder SortOrder
}

// Encode builds the query for one list request. Zero values, nil pointers and
// the literal "undefined" are left out so the backend sees "no filter".
func Encode(p Params, filter any, style SortStyle) (url.Values, error) {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	setString(v, "search", strings.TrimSpace(p.Search))
	setString(v, "sortBy", p.SortBy)
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder.Format(style))
	}

	if filter == nil {
		return v, nil
	}
	rv := reflect.ValueOf(filter)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("filter must be a struct, got %s", rv.Kind())
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name, ok := fieldName(rt.Field(i))
		if !ok {
			continue
		}
		if err := encodeField(v, name, rv.Field(i)); err != nil {
			return nil, fmt.Errorf("filter field %s: %w", rt.Field(i).Name, err)
		}
	}
	return v, nil
}

// Canonical is the sorted encoding; equal filters always yield equal strings.
func Canonical(v url.Values) string {
	return v.Encode()
}

// encodeField writes one filter. A *bool or *int is sent whenever it is set,
// false and 0 included; plain ints are sent only when non-zero.
func encodeField(v url.Values, name string, f reflect.Value) error {
	explicit := false
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
		explicit = true
	}
	switch f.Kind() {
	case reflect.String:
		setString(v, name, f.String())
	case reflect.Bool:
		v.Set(name, strconv.FormatBool(f.Bool()))
	case reflect.Int, reflect.Int32, reflect.Int64:
		if f.Int() != 0 || explicit {
			v.Set(name, strconv.FormatInt(f.Int(), 10))
		}
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", f.Type().Elem().Kind())
		}
		for i := 0; i < f.Len(); i++ {
			if s := f.Index(i).String(); s != "" && s != undefined {
				v.Add(name, s)
			}
		}
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}

func setString(v url.Values, name, s string) {
	if s == "" || s == undefined {
		return
	}
	v.Set(name, s)
}

func fieldName(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() {
		return "", false
	}
	name := sf.Tag.Get(tagName)
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}
