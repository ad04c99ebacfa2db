// Package statedict implements the closed, typed state-key dictionary
// spec §6 describes: a fixed set of externally visible keys (rank,
// tile list, composite mode, per-frame timing counters, ...) each with
// a declared kind, retrievable and settable only through accessors
// matching that kind. It follows the same "declare the option set up
// front, validate on access" shape as gogpu-gg's ContextOption /
// contextOptions pair, generalized from compile-time functional options
// to a runtime key/value store because spec §6 requires dynamic
// get/set by enum rather than construction-time configuration.
package statedict

import "errors"

// Kind is the declared value type of a Key.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindDouble
	KindPointer
	KindIntArray
	KindFloatArray
)

// ErrUnknownKey is returned when a Key has never been declared.
var ErrUnknownKey = errors.New("statedict: unknown key")

// ErrBadCast is returned when a Get/Set accessor's type does not match
// the key's declared Kind.
var ErrBadCast = errors.New("statedict: value kind mismatch")

// entry holds one key's declared kind and current value.
type entry struct {
	kind  Kind
	b     bool
	i     int
	f32   float32
	f64   float64
	ptr   any
	ints  []int
	f32s  []float32
}

// Dict is a fixed-schema, typed key/value store. The zero value is not
// usable; construct with New.
type Dict struct {
	schema map[Key]Kind
	values map[Key]*entry
}

// New builds a Dict whose declared keys are exactly those in schema.
// Undeclared keys return ErrUnknownKey from every accessor.
func New(schema map[Key]Kind) *Dict {
	d := &Dict{schema: schema, values: make(map[Key]*entry, len(schema))}
	for k, kind := range schema {
		d.values[k] = &entry{kind: kind}
	}
	return d
}

func (d *Dict) lookup(k Key, want Kind) (*entry, error) {
	kind, ok := d.schema[k]
	if !ok {
		return nil, ErrUnknownKey
	}
	if kind != want {
		return nil, ErrBadCast
	}
	return d.values[k], nil
}

// Kind reports the declared kind of k, or false if k is undeclared.
func (d *Dict) Kind(k Key) (Kind, bool) {
	kind, ok := d.schema[k]
	return kind, ok
}

func (d *Dict) GetBool(k Key) (bool, error) {
	e, err := d.lookup(k, KindBool)
	if err != nil {
		return false, err
	}
	return e.b, nil
}

func (d *Dict) SetBool(k Key, v bool) error {
	e, err := d.lookup(k, KindBool)
	if err != nil {
		return err
	}
	e.b = v
	return nil
}

func (d *Dict) GetInt(k Key) (int, error) {
	e, err := d.lookup(k, KindInt)
	if err != nil {
		return 0, err
	}
	return e.i, nil
}

func (d *Dict) SetInt(k Key, v int) error {
	e, err := d.lookup(k, KindInt)
	if err != nil {
		return err
	}
	e.i = v
	return nil
}

func (d *Dict) GetFloat(k Key) (float32, error) {
	e, err := d.lookup(k, KindFloat)
	if err != nil {
		return 0, err
	}
	return e.f32, nil
}

func (d *Dict) SetFloat(k Key, v float32) error {
	e, err := d.lookup(k, KindFloat)
	if err != nil {
		return err
	}
	e.f32 = v
	return nil
}

func (d *Dict) GetDouble(k Key) (float64, error) {
	e, err := d.lookup(k, KindDouble)
	if err != nil {
		return 0, err
	}
	return e.f64, nil
}

func (d *Dict) SetDouble(k Key, v float64) error {
	e, err := d.lookup(k, KindDouble)
	if err != nil {
		return err
	}
	e.f64 = v
	return nil
}

func (d *Dict) GetPointer(k Key) (any, error) {
	e, err := d.lookup(k, KindPointer)
	if err != nil {
		return nil, err
	}
	return e.ptr, nil
}

func (d *Dict) SetPointer(k Key, v any) error {
	e, err := d.lookup(k, KindPointer)
	if err != nil {
		return err
	}
	e.ptr = v
	return nil
}

func (d *Dict) GetIntArray(k Key) ([]int, error) {
	e, err := d.lookup(k, KindIntArray)
	if err != nil {
		return nil, err
	}
	return e.ints, nil
}

func (d *Dict) SetIntArray(k Key, v []int) error {
	e, err := d.lookup(k, KindIntArray)
	if err != nil {
		return err
	}
	e.ints = v
	return nil
}

func (d *Dict) GetFloatArray(k Key) ([]float32, error) {
	e, err := d.lookup(k, KindFloatArray)
	if err != nil {
		return nil, err
	}
	return e.f32s, nil
}

func (d *Dict) SetFloatArray(k Key, v []float32) error {
	e, err := d.lookup(k, KindFloatArray)
	if err != nil {
		return err
	}
	e.f32s = v
	return nil
}
