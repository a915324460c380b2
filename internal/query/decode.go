package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Decode reads a dashboard query string into Params and a filter struct
// pointer. Unknown keys are ignored; malformed values are errors.
func Decode(v url.Values, p *Params, filter any) error {
	p.Page = DefaultPage
	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("page: %w", err)
		}
		if n > 0 {
			p.Page = n
		}
	}

	p.Limit = DefaultLimit
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("limit: %w", err)
		}
		p.Limit = min(max(n, 1), MaxLimit)
	}

	p.Search = strings.TrimSpace(v.Get("search"))
	p.SortBy = v.Get("sortBy")
	if raw := v.Get("sortOrder"); raw != "" {
		order, ok := ParseSortOrder(raw)
		if !ok {
			return fmt.Errorf("sortOrder: unsupported value %q", raw)
		}
		p.SortOrder = order
	}

	if filter == nil {
		return nil
	}
	rv := reflect.ValueOf(filter)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("filter must be a non-nil struct pointer")
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name, ok := fieldName(rt.Field(i))
		if !ok {
			continue
		}
		raw, present := v[name]
		if !present || len(raw) == 0 || raw[0] == "" || raw[0] == undefined {
			continue
		}
		if err := decodeField(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func decodeField(f reflect.Value, raw []string) error {
	if f.Kind() == reflect.Pointer {
		elem := reflect.New(f.Type().Elem())
		if err := decodeField(elem.Elem(), raw); err != nil {
			return err
		}
		f.Set(elem)
		return nil
	}
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw[0])
	case reflect.Bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw[0], 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", f.Type().Elem().Kind())
		}
		out := reflect.MakeSlice(f.Type(), 0, len(raw))
		for _, s := range raw {
			if s != "" && s != undefined {
				out = reflect.Append(out, reflect.ValueOf(s).Convert(f.Type().Elem()))
			}
		}
		f.Set(out)
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}
