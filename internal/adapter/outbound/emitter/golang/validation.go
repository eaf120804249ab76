package golang

import (
	"strconv"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

func validationFile(pkg string, defs []domain.SchemaDefinition, structs []structInfo) string {
	w := codegen.NewWriter("\t")
	w.Line(header)
	w.Blank()
	w.Linef("package %s", pkg)
	w.Raw(validationRuntime)

	for _, s := range structs {
		w.Blank()
		validateMethod(w, s)
	}

	w.Blank()
	w.Line("// RequiredFields lists the required JSON fields of every object schema.")
	w.Line("var RequiredFields = map[string][]string{")
	w.Indent()
	for _, d := range defs {
		obj, ok := d.IR.(*domain.Object)
		if !ok {
			continue
		}
		names := make([]string, 0, len(obj.Properties))
		for _, n := range obj.RequiredNames() {
			names = append(names, strconv.Quote(n))
		}
		w.Linef("%s: {%s},", strconv.Quote(d.Name), strings.Join(names, ", "))
	}
	w.Dedent()
	w.Line("}")

	w.Blank()
	w.Line("// Validators maps schema names to JSON document validators.")
	w.Line("var Validators = map[string]func(data []byte) error{")
	w.Indent()
	for _, d := range defs {
		w.Linef("%s: func(data []byte) error { return ValidateJSON(%s, data) },", strconv.Quote(d.Name), strconv.Quote(d.Name))
	}
	w.Dedent()
	w.Line("}")
	return w.String()
}

// validateMethod renders Validate for one struct. Only required string fields
// and required references are presence-checked; nested objects are validated
// when set.
func validateMethod(w *codegen.Writer, s structInfo) {
	fieldErr := func(field, err string) string {
		return "errs = append(errs, &FieldError{Schema: " + strconv.Quote(s.schema) + ", Field: " + field + ", Err: " + err + "})"
	}

	w.Linef("// Validate reports required fields of %s that are empty.", s.name)
	w.Linef("func (v *%s) Validate() error {", s.name)
	w.Indent()
	w.Line("if v == nil {")
	w.Line("\treturn nil")
	w.Line("}")
	w.Line("var errs []error")
	for _, f := range s.fields {
		wire := strconv.Quote(f.wire)
		switch f.typ.kind {
		case kindString:
			if !f.required || f.pointered {
				continue
			}
			w.Linef("if v.%s == \"\" {", f.name)
			w.Line("\t" + fieldErr(wire, "ErrRequired"))
			w.Line("}")
		case kindRef:
			switch {
			case f.required && f.typ.validates:
				w.Linef("if v.%s == nil {", f.name)
				w.Line("\t" + fieldErr(wire, "ErrRequired"))
				w.Linef("} else if err := v.%s.Validate(); err != nil {", f.name)
				w.Line("\t" + fieldErr(wire, "err"))
				w.Line("}")
			case f.required:
				w.Linef("if v.%s == nil {", f.name)
				w.Line("\t" + fieldErr(wire, "ErrRequired"))
				w.Line("}")
			case f.typ.validates:
				w.Linef("if err := v.%s.Validate(); err != nil {", f.name)
				w.Line("\t" + fieldErr(wire, "err"))
				w.Line("}")
			}
		case kindStruct:
			w.Linef("if err := v.%s.Validate(); err != nil {", f.name)
			w.Line("\t" + fieldErr(wire, "err"))
			w.Line("}")
		case kindSlice:
			if !f.typ.validates {
				continue
			}
			w.Linef("for i := range v.%s {", f.name)
			w.Linef("\tif err := v.%s[i].Validate(); err != nil {", f.name)
			w.Line("\t\t" + fieldErr("fmt.Sprintf(\"%s[%d]\", "+wire+", i)", "err"))
			w.Line("\t}")
			w.Line("}")
		}
	}
	w.Line("return errors.Join(errs...)")
	w.Dedent()
	w.Line("}")
}

const validationRuntime = `
import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrRequired is wrapped by FieldError when a required field is empty.
var ErrRequired = errors.New("is required")

// FieldError reports a problem with one field of a schema.
type FieldError struct {
	Schema string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Schema, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Issue is one problem found by ValidateJSON.
type Issue struct {
	Path    string
	Message string
}

// ValidationError lists every issue found in a JSON document.
type ValidationError struct {
	Schema string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		if is.Path == "" {
			parts[i] = is.Message
			continue
		}
		parts[i] = is.Path + " " + is.Message
	}
	return e.Schema + ": " + strings.Join(parts, "; ")
}

// ValidateByName runs the validator registered for name.
func ValidateByName(name string, data []byte) error {
	fn, ok := Validators[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	return fn(data)
}

// ValidateJSON checks data against the descriptor of the named schema.
func ValidateJSON(name string, data []byte) error {
	desc, ok := Schema(name)
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	var issues []Issue
	check(desc, value, "", &issues, 0)
	if len(issues) > 0 {
		return &ValidationError{Schema: name, Issues: issues}
	}
	return nil
}

const maxDepth = 64

var formats = map[string]*regexp.Regexp{
	"email":     regexp.MustCompile(` + "`" + `^[^\s@]+@[^\s@]+\.[^\s@]+$` + "`" + `),
	"uri":       regexp.MustCompile(` + "`" + `^[a-zA-Z][a-zA-Z0-9+.-]*:\S+$` + "`" + `),
	"uuid":      regexp.MustCompile(` + "`" + `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$` + "`" + `),
	"date-time": regexp.MustCompile(` + "`" + `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$` + "`" + `),
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func check(d *Descriptor, value any, path string, issues *[]Issue, depth int) {
	if d == nil || depth > maxDepth {
		return
	}
	add := func(msg string) { *issues = append(*issues, Issue{Path: path, Message: msg}) }
	switch d.Kind {
	case "string":
		s, ok := value.(string)
		if !ok {
			add("expected string")
			return
		}
		n := utf8.RuneCountInString(s)
		if d.MinLength != nil && n < *d.MinLength {
			add(fmt.Sprintf("must be at least %d characters", *d.MinLength))
		}
		if d.MaxLength != nil && n > *d.MaxLength {
			add(fmt.Sprintf("must be at most %d characters", *d.MaxLength))
		}
		if re, ok := formats[d.Format]; ok && !re.MatchString(s) {
			add("must be a valid " + d.Format)
		}
	case "number":
		f, ok := value.(float64)
		if !ok {
			add("expected number")
			return
		}
		if d.Integer && f != math.Trunc(f) {
			add("must be an integer")
		}
		if d.Min != nil && f < *d.Min {
			add(fmt.Sprintf("must be >= %g", *d.Min))
		}
		if d.Max != nil && f > *d.Max {
			add(fmt.Sprintf("must be <= %g", *d.Max))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			add("expected boolean")
		}
	case "null":
		if value != nil {
			add("expected null")
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			add("expected array")
			return
		}
		for i, item := range items {
			check(d.Items, item, fmt.Sprintf("%s[%d]", path, i), issues, depth+1)
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			add("expected object")
			return
		}
		for _, p := range d.Properties {
			field, present := obj[p.Name]
			fieldPath := join(path, p.Name)
			if !present {
				if p.Required {
					*issues = append(*issues, Issue{Path: fieldPath, Message: "is required"})
				}
				continue
			}
			if p.Required && p.Type != nil && p.Type.Kind == "string" && field == "" {
				*issues = append(*issues, Issue{Path: fieldPath, Message: "is required"})
				continue
			}
			check(p.Type, field, fieldPath, issues, depth+1)
		}
	case "record":
		obj, ok := value.(map[string]any)
		if !ok {
			add("expected object")
			return
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			check(d.ValueType, obj[k], join(path, k), issues, depth+1)
		}
	case "enum":
		if s, ok := value.(string); ok {
			for _, allowed := range d.Values {
				if s == allowed {
					return
				}
			}
		}
		add("must be one of " + strings.Join(d.Values, ", "))
	case "union":
		for _, variant := range d.Variants {
			var sub []Issue
			check(variant, value, path, &sub, depth+1)
			if len(sub) == 0 {
				return
			}
		}
		add("does not match any variant")
	case "literal":
		var want any
		if err := json.Unmarshal(d.Value, &want); err != nil || !reflect.DeepEqual(value, want) {
			add("must be " + string(d.Value))
		}
	case "optional", "default":
		check(d.Inner, value, path, issues, depth+1)
	case "ref":
		target, ok := Schema(d.Target)
		if !ok {
			add("references unknown schema " + d.Target)
			return
		}
		check(target, value, path, issues, depth+1)
	}
}
`
