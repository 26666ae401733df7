package ripple

import (
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"
)

// Navigator provides read access to the association values an entity
// currently holds in memory. Cascades only ever reach what a Navigator
// returns; entities not loaded into memory are never touched.
type Navigator interface {
	// Related returns the entities referenced by the named relationship.
	// Single-valued relationships yield zero or one element, collection
	// relationships yield the members present in the in-memory collection.
	Related(e Entity, rel string) []Entity
}

// NavigatorFunc is an adapter allowing ordinary functions to be used as
// Navigators.
type NavigatorFunc func(e Entity, rel string) []Entity

// Related calls f(e, rel).
func (f NavigatorFunc) Related(e Entity, rel string) []Entity { return f(e, rel) }

// StructNavigator resolves association values by reflecting over the
// entity's struct fields. A relationship named "flight_legs" maps to a
// field tagged `ripple:"flight_legs"`, or, absent a tag, to the field named
// FlightLegs. Matched fields must hold an Entity, a pointer to one, or a
// slice of either; nil references and missing fields yield no neighbors.
type StructNavigator struct{}

// Related implements Navigator.
func (StructNavigator) Related(e Entity, rel string) []Entity {
	rv := reflect.ValueOf(e)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	fv, ok := fieldByRel(rv, rel)
	if !ok {
		return nil
	}
	return entitiesOf(fv)
}

// fieldByRel finds the struct field backing the named relationship. Tagged
// fields take precedence over name-derived matches.
func fieldByRel(rv reflect.Value, rel string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("ripple")
		if name, _, _ := strings.Cut(tag, ","); name == rel {
			return rv.Field(i), true
		}
	}
	if fv := rv.FieldByName(inflect.Camelize(rel)); fv.IsValid() {
		return fv, true
	}
	return reflect.Value{}, false
}

func entitiesOf(fv reflect.Value) []Entity {
	switch fv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Entity, 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			if e, ok := asEntity(fv.Index(i)); ok {
				out = append(out, e)
			}
		}
		return out
	default:
		if e, ok := asEntity(fv); ok {
			return []Entity{e}
		}
		return nil
	}
}

func asEntity(v reflect.Value) (Entity, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, false
		}
	}
	e, ok := v.Interface().(Entity)
	return e, ok
}
