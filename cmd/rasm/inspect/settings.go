package inspect

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

type fieldKind byte

const (
	unknownKind fieldKind = iota
	boolKind
	intKind
)

// settings holds the inspector's display preferences. Fields are looked up
// by abbreviated name via settingsTree, the same reflection-driven pattern
// the debugger host uses for its own settings struct.
type settings struct {
	HexMode       bool `doc:"display addresses and values in hexadecimal"`
	VectorCount   int  `doc:"number of vector-table slots to decode"`
	ShowAddresses bool `doc:"show each symbol's address in symbol listings"`
}

func newSettings() *settings {
	return &settings{
		HexMode:       true,
		VectorCount:   26,
		ShowAddresses: true,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	t := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		settingsFields[i] = settingsField{
			name:  strings.ToLower(f.Name),
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   f.Tag.Get("doc"),
		}
		if err := settingsTree.Add(settingsFields[i].name, &settingsFields[i]); err != nil {
			panic(err)
		}
	}
}

func (s *settings) Display(w io.Writer) {
	v := reflect.ValueOf(s).Elem()
	for _, f := range settingsFields {
		fmt.Fprintf(w, "%-16s %-8v %s\n", f.name, v.Field(f.index).Interface(), f.doc)
	}
}

func (s *settings) Kind(key string) fieldKind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return unknownKind
	}
	switch f.kind {
	case reflect.Bool:
		return boolKind
	case reflect.Int:
		return intKind
	default:
		return unknownKind
	}
}

func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return fmt.Errorf("no such setting '%s'", key)
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().ConvertibleTo(f.typ) {
		return fmt.Errorf("value of type %s cannot be assigned to setting '%s' (%s)", rv.Type(), key, f.typ)
	}
	reflect.ValueOf(s).Elem().Field(f.index).Set(rv.Convert(f.typ))
	return nil
}
