package decoder

import (
	"reflect"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

// Unmarshal stores v's decoded data into the value pointed to by target,
// using Go's standard struct-tag convention (`maxminddb:"field_name"`) to
// match map keys to struct fields.
//
// This is a convenience layer built entirely on top of the public Value
// accessors: it is never consulted by Decode itself and has no bearing on
// the pointer-depth, length or UTF-8 checks already enforced while building
// the Value tree. Callers who need full control over decoding, or who want
// to avoid reflection on a hot path, should implement mmdbdata.Unmarshaler
// instead.
func (v Value) Unmarshal(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return mmdberrors.New(mmdberrors.KindMalformed, "unmarshal target must be a non-nil pointer")
	}
	return v.unmarshalInto(rv.Elem())
}

func (v Value) unmarshalInto(rv reflect.Value) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return v.unmarshalInto(rv.Elem())
	}

	if rv.Kind() == reflect.Interface && rv.NumMethod() == 0 {
		native, err := v.toNative()
		if err != nil {
			return err
		}
		if native != nil {
			rv.Set(reflect.ValueOf(native))
		}
		return nil
	}

	switch v.Kind() {
	case KindMap:
		return v.unmarshalMap(rv)
	case KindSlice:
		return v.unmarshalSlice(rv)
	case KindString:
		s, _ := v.String()
		return assignString(rv, s)
	case KindBytes:
		b, _ := v.Bytes()
		return assignBytes(rv, b)
	case KindBool:
		b, _ := v.Bool()
		return assignBool(rv, b)
	case KindFloat64:
		f, _ := v.Float64()
		return assignFloat(rv, f)
	case KindFloat32:
		f, _ := v.Float32()
		return assignFloat(rv, float64(f))
	case KindUint16:
		u, _ := v.Uint16()
		return assignUint(rv, uint64(u))
	case KindUint32:
		u, _ := v.Uint32()
		return assignUint(rv, uint64(u))
	case KindUint64:
		u, _ := v.Uint64()
		return assignUint(rv, u)
	case KindUint128:
		u, _ := v.Uint128()
		if rv.Kind() == reflect.Ptr {
			rv.Set(reflect.ValueOf(u))
			return nil
		}
		return mmdberrors.NewUnmarshalTypeError(u, rv.Type())
	case KindInt32:
		i, _ := v.Int32()
		return assignInt(rv, int64(i))
	default:
		return mmdberrors.New(mmdberrors.KindMalformed, "cannot unmarshal value of kind %s", v.Kind())
	}
}

// toNative converts v into a plain any for assignment into an interface{}
// field, mirroring encoding/json's behavior for untyped destinations.
func (v Value) toNative() (any, error) {
	switch v.Kind() {
	case KindMap:
		entries, _ := v.Map()
		m := make(map[string]any, len(entries))
		for _, e := range entries {
			native, err := e.Value.toNative()
			if err != nil {
				return nil, err
			}
			m[e.Key] = native
		}
		return m, nil
	case KindSlice:
		elems, _ := v.Slice()
		s := make([]any, len(elems))
		for i, e := range elems {
			native, err := e.toNative()
			if err != nil {
				return nil, err
			}
			s[i] = native
		}
		return s, nil
	case KindString:
		s, _ := v.String()
		return s, nil
	case KindBytes:
		b, _ := v.Bytes()
		return b, nil
	case KindBool:
		b, _ := v.Bool()
		return b, nil
	case KindFloat64:
		f, _ := v.Float64()
		return f, nil
	case KindFloat32:
		f, _ := v.Float32()
		return f, nil
	case KindUint16:
		u, _ := v.Uint16()
		return u, nil
	case KindUint32:
		u, _ := v.Uint32()
		return u, nil
	case KindUint64:
		u, _ := v.Uint64()
		return u, nil
	case KindUint128:
		u, _ := v.Uint128()
		return u, nil
	case KindInt32:
		i, _ := v.Int32()
		return i, nil
	default:
		return nil, mmdberrors.New(mmdberrors.KindMalformed, "cannot unmarshal value of kind %s", v.Kind())
	}
}

func (v Value) unmarshalMap(rv reflect.Value) error {
	entries, _ := v.Map()

	switch rv.Kind() {
	case reflect.Struct:
		fields := structFieldsByTag(rv.Type())
		for _, e := range entries {
			fi, ok := fields[e.Key]
			if !ok {
				continue
			}
			if err := e.Value.unmarshalInto(rv.Field(fi)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if rv.IsNil() {
			rv.Set(reflect.MakeMapWithSize(rv.Type(), len(entries)))
		}
		elemType := rv.Type().Elem()
		for _, e := range entries {
			elem := reflect.New(elemType).Elem()
			if err := e.Value.unmarshalInto(elem); err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(e.Key).Convert(rv.Type().Key()), elem)
		}
		return nil
	default:
		return mmdberrors.NewUnmarshalTypeError(v, rv.Type())
	}
}

func (v Value) unmarshalSlice(rv reflect.Value) error {
	elems, _ := v.Slice()

	switch rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(rv.Type(), len(elems), len(elems))
		for i, e := range elems {
			if err := e.unmarshalInto(out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
		return nil
	case reflect.Array:
		for i, e := range elems {
			if i >= rv.Len() {
				break
			}
			if err := e.unmarshalInto(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return mmdberrors.NewUnmarshalTypeError(v, rv.Type())
	}
}

// structFieldsByTag indexes a struct type's exported fields by their
// `maxminddb` tag, falling back to the field name when no tag is present.
func structFieldsByTag(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("maxminddb")
		if tag == "" || tag == "-" {
			tag = f.Name
		}
		out[tag] = i
	}
	return out
}

func assignString(rv reflect.Value, s string) error {
	if rv.Kind() != reflect.String {
		return mmdberrors.NewUnmarshalTypeStrError(s, rv.Type())
	}
	rv.SetString(s)
	return nil
}

func assignBytes(rv reflect.Value, b []byte) error {
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return mmdberrors.NewUnmarshalTypeError(b, rv.Type())
	}
	rv.SetBytes(b)
	return nil
}

func assignBool(rv reflect.Value, b bool) error {
	if rv.Kind() != reflect.Bool {
		return mmdberrors.NewUnmarshalTypeError(b, rv.Type())
	}
	rv.SetBool(b)
	return nil
}

func assignFloat(rv reflect.Value, f float64) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(f)
		return nil
	default:
		return mmdberrors.NewUnmarshalTypeError(f, rv.Type())
	}
}

func assignUint(rv reflect.Value, u uint64) error {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(u)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(u))
		return nil
	default:
		return mmdberrors.NewUnmarshalTypeError(u, rv.Type())
	}
}

func assignInt(rv reflect.Value, i int64) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(i)
		return nil
	default:
		return mmdberrors.NewUnmarshalTypeError(i, rv.Type())
	}
}
