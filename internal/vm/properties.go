package vm

import (
	"strconv"

	"github.com/piescript-lang/piescript/internal/nativeiface"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/token"
)

// instanceGet implements the InstanceGet opcode: primitives delegate
// to a small per-type property table (.string/.integer/.float/.length),
// an Instance returns its property slot or, failing that, a bound
// method if key names one on its model, and a NativeInstance delegates
// to its own Get.
func (v *VM) instanceGet(receiver object.Object, key string) (object.Object, error) {
	switch r := receiver.(type) {
	case object.Integer:
		return integerProperty(v.lastPosition, r, key)
	case object.Float:
		return floatProperty(v.lastPosition, r, key)
	case *object.String:
		return stringProperty(v.lastPosition, r.Value, key)
	case *object.Array:
		if key == "length" {
			return object.Integer(len(r.Elements)), nil
		}
		return nil, newRuntimeError(v.lastPosition, "unknown property %q", key)
	case *object.Instance:
		return v.instancePropertyGet(r, key)
	case nativeiface.NativeInstance:
		return r.Get(v, key)
	default:
		return nil, newRuntimeError(v.lastPosition, "object of type %s has no properties", receiver.Type())
	}
}

func (v *VM) instanceSet(receiver object.Object, key string, value object.Object) error {
	switch r := receiver.(type) {
	case *object.Instance:
		model := v.Program.Models[r.ModelIndex]
		idx, ok := model.PropertyIndices[key]
		if !ok {
			return newRuntimeError(v.lastPosition, "unknown property %q", key)
		}
		(*r.Properties)[idx] = value
		return nil
	case nativeiface.NativeInstance:
		return r.Set(v, key, value)
	default:
		return newRuntimeError(v.lastPosition, "object of type %s has no settable properties", receiver.Type())
	}
}

func (v *VM) instancePropertyGet(instance *object.Instance, key string) (object.Object, error) {
	model := v.Program.Models[instance.ModelIndex]
	if idx, ok := model.PropertyIndices[key]; ok {
		return (*instance.Properties)[idx], nil
	}
	if functionIndex, ok := model.Functions[key]; ok {
		return object.BoundMethod{Instance: instance, FunctionIndex: functionIndex}, nil
	}
	return nil, newRuntimeError(v.lastPosition, "unknown property %q", key)
}

// indexGet implements IndexGet: `array[i]` and `string[i]` (a
// one-character string), bounds-checked against the receiver's length.
func (v *VM) indexGet(receiver, index object.Object) (object.Object, error) {
	i, ok := index.(object.Integer)
	if !ok {
		return nil, newRuntimeError(v.lastPosition, "index must be an integer")
	}

	switch r := receiver.(type) {
	case *object.Array:
		if i < 0 || int(i) >= len(r.Elements) {
			return nil, newRuntimeError(v.lastPosition, "index out of bounds")
		}
		return r.Elements[i], nil
	case *object.String:
		runes := []rune(r.Value)
		if i < 0 || int(i) >= len(runes) {
			return nil, newRuntimeError(v.lastPosition, "index out of bounds")
		}
		return object.NewString(string(runes[i])), nil
	case nativeiface.NativeInstance:
		return r.Call(v, "index_get", []object.Object{index})
	default:
		return nil, newRuntimeError(v.lastPosition, "object of type %s can not be indexed", receiver.Type())
	}
}

// indexSet implements IndexSet: only Array is mutable by index — a
// string's characters are not individually assignable, matching
// String's role as an immutable-per-element shared text container.
func (v *VM) indexSet(receiver, index, value object.Object) error {
	i, ok := index.(object.Integer)
	if !ok {
		return newRuntimeError(v.lastPosition, "index must be an integer")
	}

	switch r := receiver.(type) {
	case *object.Array:
		if i < 0 || int(i) >= len(r.Elements) {
			return newRuntimeError(v.lastPosition, "index out of bounds")
		}
		r.Elements[i] = value
		return nil
	case nativeiface.NativeInstance:
		_, err := r.Call(v, "index_set", []object.Object{index, value})
		return err
	default:
		return newRuntimeError(v.lastPosition, "object of type %s can not be indexed", receiver.Type())
	}
}

func integerProperty(pos token.Position, value object.Integer, key string) (object.Object, error) {
	switch key {
	case "string":
		return object.NewString(value.String()), nil
	case "integer":
		return value, nil
	case "float":
		return object.Float(float64(value)), nil
	default:
		return nil, newRuntimeError(pos, "unknown property %q", key)
	}
}

func floatProperty(pos token.Position, value object.Float, key string) (object.Object, error) {
	switch key {
	case "string":
		return object.NewString(value.String()), nil
	case "integer":
		return object.Integer(int64(value)), nil
	case "float":
		return value, nil
	default:
		return nil, newRuntimeError(pos, "unknown property %q", key)
	}
}

// stringProperty's .integer/.float attempt a parse and yield Null on
// failure rather than raising an error, the "safe parse" behavior
// spec.md calls for.
func stringProperty(pos token.Position, value string, key string) (object.Object, error) {
	switch key {
	case "string":
		return object.NewString(value), nil
	case "integer":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return object.Integer(n), nil
		}
		return object.NullValue, nil
	case "float":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return object.Float(f), nil
		}
		return object.NullValue, nil
	case "length":
		return object.Integer(len([]rune(value))), nil
	default:
		return nil, newRuntimeError(pos, "unknown property %q", key)
	}
}
