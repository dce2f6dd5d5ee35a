package comicinfo

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Kind describes how a field's text is interpreted.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindEnum:
		return "enum"
	default:
		return "text"
	}
}

// Field describes one ComicInfo element.
type Field struct {
	Name    string
	Kind    Kind
	Choices []string
}

type field struct {
	name    string
	index   int
	elem    reflect.Type
	kind    Kind
	choices []string
}

var (
	schema      []field
	fieldByName map[string]field
	fieldByFold map[string]field

	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

func init() {
	t := reflect.TypeFor[ComicInfo]()
	fieldByName = make(map[string]field, t.NumField())
	fieldByFold = make(map[string]field, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Type.Kind() != reflect.Pointer {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("xml"), ",")
		f := field{name: name, index: i, elem: sf.Type.Elem()}
		switch {
		case reflect.PointerTo(f.elem).Implements(textUnmarshalerType):
			f.kind = KindEnum
			f.choices = enumChoices(f.elem)
		case f.elem.Kind() == reflect.String:
			f.kind = KindText
		case f.elem.Kind() == reflect.Int:
			f.kind = KindInt
		case f.elem.Kind() == reflect.Float64:
			f.kind = KindFloat
		default:
			panic(fmt.Sprintf("comicinfo: unsupported field type %s for %s", f.elem, name))
		}
		schema = append(schema, f)
		fieldByName[name] = f
		fieldByFold[strings.ToLower(name)] = f
	}
}

func enumChoices(t reflect.Type) []string {
	switch t {
	case reflect.TypeFor[YesNo]():
		return yesNoLabels.labels
	case reflect.TypeFor[Manga]():
		return mangaLabels.labels
	case reflect.TypeFor[AgeRating]():
		return ageRatingLabels.labels
	}
	return nil
}

func (f field) assign(target reflect.Value, text string) error {
	ptr := reflect.New(f.elem)
	switch f.kind {
	case KindText:
		ptr.Elem().SetString(text)
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return fmt.Errorf("invalid integer %q", text)
		}
		ptr.Elem().SetInt(n)
	case KindFloat:
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", text)
		}
		ptr.Elem().SetFloat(n)
	case KindEnum:
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return err
		}
	}
	target.Field(f.index).Set(ptr)
	return nil
}

func (f field) format(source reflect.Value) (string, bool, error) {
	value := source.Field(f.index)
	if value.IsNil() {
		return "", false, nil
	}
	elem := value.Elem()
	switch f.kind {
	case KindText:
		return elem.String(), true, nil
	case KindInt:
		return strconv.FormatInt(elem.Int(), 10), true, nil
	case KindFloat:
		return strconv.FormatFloat(elem.Float(), 'g', -1, 64), true, nil
	default:
		if !f.elem.Implements(textMarshalerType) {
			return "", false, fmt.Errorf("%s does not marshal to text", f.elem)
		}
		text, err := elem.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false, err
		}
		return string(text), true, nil
	}
}

// Fields lists the schema in document order.
func Fields() []Field {
	out := make([]Field, len(schema))
	for i, f := range schema {
		out[i] = Field{Name: f.name, Kind: f.kind, Choices: append([]string(nil), f.choices...)}
	}
	return out
}

// Lookup resolves a field name case-insensitively to its canonical element name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldByFold[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field{}, false
	}
	return Field{Name: f.name, Kind: f.kind, Choices: append([]string(nil), f.choices...)}, true
}

// Get returns the text form of a field, and false when it is absent.
func Get(info *ComicInfo, name string) (string, bool, error) {
	f, ok := fieldByFold[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false, fmt.Errorf("unknown field %q", name)
	}
	if info == nil {
		return "", false, nil
	}
	return f.format(reflect.ValueOf(info).Elem())
}

// Set parses value according to the field's type and stores it. An empty value
// clears the field.
func Set(info *ComicInfo, name, value string) error {
	if info == nil {
		return fmt.Errorf("set %s: nil document", name)
	}
	f, ok := fieldByFold[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	target := reflect.ValueOf(info).Elem()
	if value == "" {
		target.Field(f.index).SetZero()
		return nil
	}
	if err := f.assign(target, value); err != nil {
		return fmt.Errorf("set %s: %w", f.name, err)
	}
	return nil
}

// Present returns the names and text values of every field that is set, in
// document order.
func Present(info *ComicInfo) [][2]string {
	if info == nil {
		return nil
	}
	source := reflect.ValueOf(info).Elem()
	var out [][2]string
	for _, f := range schema {
		text, ok, err := f.format(source)
		if err != nil {
			text = fmt.Sprintf("<%v>", err)
			ok = true
		}
		if ok {
			out = append(out, [2]string{f.name, text})
		}
	}
	return out
}
