package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"lmsadmin/internal/domain"
	"lmsadmin/internal/errdefs"
)

type deriver interface{ Derive(touched domain.Touched) }

type checker interface{ Check() error }

type readOnly interface{ ReadOnly() []string }

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return v
}

// Form is the edit surface of one record. Values are kept in their JSON shape
// so a patch from the browser merges field by field.
type Form[E Editable] struct {
	validate   *validator.Validate
	original   map[string]any
	values     map[string]any
	dependents map[string][]string
	readOnly   map[string]bool
}

func NewForm[E Editable](initial E, v *validator.Validate) (*Form[E], error) {
	values, err := toMap(initial)
	if err != nil {
		return nil, err
	}
	f := &Form[E]{
		validate:   v,
		original:   values,
		values:     maps.Clone(values),
		dependents: initial.Dependents(),
		readOnly:   map[string]bool{},
	}
	if ro, ok := any(initial).(readOnly); ok {
		for _, name := range ro.ReadOnly() {
			f.readOnly[name] = true
		}
	}
	return f, nil
}

// Apply merges a patch. A parent that changes clears its dependents unless
// the same patch sets them, then derived fields are recomputed. A failed
// Apply leaves the form untouched.
func (f *Form[E]) Apply(patch map[string]any) error {
	next := maps.Clone(f.values)
	for name, val := range patch {
		if _, known := next[name]; !known {
			return errdefs.NewValidationError(name, fmt.Sprintf("%s is not an editable field", name))
		}
		if f.readOnly[name] {
			continue
		}
		next[name] = val
	}

	for _, parent := range sortedKeys(f.dependents) {
		if _, set := patch[parent]; !set || f.readOnly[parent] {
			continue
		}
		if sameValue(f.values[parent], next[parent]) {
			continue
		}
		for _, child := range f.dependents[parent] {
			if _, set := patch[child]; !set {
				next[child] = ""
			}
		}
	}

	e, err := fromMap[E](next)
	if err != nil {
		return err
	}
	if d, ok := any(&e).(deriver); ok {
		d.Derive(func(name string) bool {
			_, set := patch[name]
			return set && !f.readOnly[name]
		})
	}
	derived, err := toMap(e)
	if err != nil {
		return err
	}
	f.values = derived
	return nil
}

// Value is the current form as the typed edit struct.
func (f *Form[E]) Value() E {
	e, _ := fromMap[E](f.values)
	return e
}

func (f *Form[E]) Values() map[string]any {
	return maps.Clone(f.values)
}

func (f *Form[E]) Validate() error {
	e := f.Value()
	if err := f.validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &errdefs.ValidationError{}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, errdefs.FieldError{Field: fieldPath(fe), Message: describe(reflect.TypeOf(e), fe)})
		}
		return out
	}
	if c, ok := any(e).(checker); ok {
		return c.Check()
	}
	return nil
}

// Changes is the set of fields that differ from the record the form was
// opened with. Read-only fields never appear.
func (f *Form[E]) Changes() (map[string]any, error) {
	changes := map[string]any{}
	for name, val := range f.values {
		if f.readOnly[name] {
			continue
		}
		if !sameValue(f.original[name], val) {
			changes[name] = val
		}
	}
	if len(changes) == 0 {
		return nil, errdefs.NewValidationError("", "no changes to save")
	}
	return changes, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap[E any](m map[string]any) (E, error) {
	var e E
	data, err := json.Marshal(m)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return e, errdefs.NewValidationError(typeErr.Field, fmt.Sprintf("%s must be %s", typeErr.Field, kindName(typeErr.Type)))
		}
		var timeErr *time.ParseError
		if errors.As(err, &timeErr) {
			return e, errdefs.NewValidationError("", "dates must be RFC 3339 timestamps")
		}
		return e, errdefs.NewValidationError("", err.Error())
	}
	return e, nil
}

func kindName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		return "a number"
	case reflect.Bool:
		return "true or false"
	case reflect.Slice:
		return "a list"
	case reflect.Struct, reflect.Map:
		return "an object"
	}
	return "text"
}

func sameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

// fieldPath drops the struct name from the namespace: questions[0].marks.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

var timeType = reflect.TypeOf(time.Time{})

func describe(root reflect.Type, fe validator.FieldError) string {
	name := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", name, siblingName(root, fe.Param()))
	case "gtfield":
		if fe.Type() == timeType {
			return fmt.Sprintf("%s must be after %s", name, siblingName(root, fe.Param()))
		}
		return fmt.Sprintf("%s must be greater than %s", name, siblingName(root, fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return name + " must be a valid URL"
	}
	return name + " is invalid"
}

// siblingName maps a Go field name from a cross-field tag to its JSON name.
func siblingName(root reflect.Type, goName string) string {
	if sf, ok := root.FieldByName(goName); ok {
		return jsonName(sf)
	}
	return goName
}
