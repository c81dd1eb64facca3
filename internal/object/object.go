// Package object defines the runtime value representation the VM
// operates on. Per spec.md's design notes (carried into SPEC_FULL.md §9),
// there is no hand-rolled arena or refcounting scheme here: String and
// Array are shared mutable containers represented as pointers, and Go's
// garbage collector is trusted to reclaim them exactly like any other Go
// heap value. A Model instance's properties live in the same kind of
// pointer-backed container for the same reason.
package object

import "strconv"

// Object is any runtime value PieScript code can hold: Null, a Boolean,
// an Integer, a Float, a *String, a *Array, a Model reference, a
// Function reference, a *Instance, or a host-provided native value
// (NativeFunction, NativeModel, NativeInstance from package nativeiface).
//
// Go's interface{} already gives every concrete type here value or
// reference semantics matching spec.md §3 without a tagged-union wrapper
// type; code that needs to discover "what kind of object is this"
// switches on the concrete type, the idiomatic Go equivalent of the
// original's enum match.
type Object interface {
	// Type names the runtime kind, used in error messages and by
	// TypeName-based primitive property lookups.
	Type() string
	// String renders the object the way string concatenation and
	// `.string` property access do.
	String() string
	// Truthy reports whether the object counts as true in a boolean
	// context (`if`, `and`, `or`, `not`): Null and Boolean(false) are
	// falsy, and so are Integer(0), Float(0), and the empty string;
	// every other object is truthy.
	Truthy() bool
}

// Null is the sole null value; comparisons use the zero value directly
// since Null carries no data.
type Null struct{}

func (Null) Type() string   { return "null" }
func (Null) String() string { return "null" }
func (Null) Truthy() bool   { return false }

// NullValue is the single shared Null instance.
var NullValue = Null{}

// Boolean wraps a bool.
type Boolean bool

func (b Boolean) Type() string   { return "boolean" }
func (b Boolean) Truthy() bool   { return bool(b) }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer wraps an int64.
type Integer int64

func (Integer) Type() string   { return "integer" }
func (i Integer) Truthy() bool { return i != 0 }
func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Float wraps a float64.
type Float float64

func (Float) Type() string   { return "float" }
func (f Float) Truthy() bool { return f != 0 }
func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// String is a shared mutable text container: every PieScript reference
// to the same string value shares this pointer, so mutation (were it
// ever added) would be visible through every alias, matching the
// original's Reference<String>.
type String struct {
	Value string
}

// NewString allocates a fresh shared string container.
func NewString(value string) *String { return &String{Value: value} }

func (*String) Type() string     { return "string" }
func (s *String) Truthy() bool   { return len(s.Value) > 0 }
func (s *String) String() string { return s.Value }

// Array is a shared mutable ordered collection.
type Array struct {
	Elements []Object
}

// NewArray allocates a fresh shared array container.
func NewArray(elements []Object) *Array { return &Array{Elements: elements} }

func (*Array) Type() string   { return "array" }
func (a *Array) Truthy() bool { return true }
func (a *Array) String() string {
	return "array"
}

// Model is a reference to program.Program.Models[Index] by constant
// pool position; kept here (rather than importing package program) to
// avoid a dependency cycle, since program.Program's constant pool holds
// object.Object values that may themselves be Model or Function.
type Model struct {
	Index int
}

func (Model) Type() string   { return "model" }
func (Model) Truthy() bool   { return true }
func (m Model) String() string { return "model" }

// Function is a reference to program.Program.Functions[Index].
type Function struct {
	Index int
}

func (Function) Type() string     { return "function" }
func (Function) Truthy() bool     { return true }
func (f Function) String() string { return "function" }

// BoundMethod is a compiled instance method bound to the receiver it
// was looked up on: InstanceGet returns one of these when the key
// names a function on the instance's model rather than a property
// slot. Calling it supplies Instance as the method's implicit `this`
// ahead of the call expression's own arguments, the same convention
// meta-method dispatch uses directly.
type BoundMethod struct {
	Instance      *Instance
	FunctionIndex int
}

func (BoundMethod) Type() string     { return "function" }
func (BoundMethod) Truthy() bool     { return true }
func (b BoundMethod) String() string { return "function" }

// Instance is a live model instance: Model references the defining
// model's index in the program's model table, and Properties holds one
// Object per property in declaration order. Properties is a pointer
// field on a value receiver so copies of Instance (e.g. when pushed
// and popped off the stack as an interface value) still share the same
// underlying slice header and can't silently fork state.
type Instance struct {
	ModelIndex int
	Properties *[]Object
}

// NewInstance allocates propertyCount zero-valued (Null) properties for
// a fresh instance of the model at modelIndex.
func NewInstance(modelIndex, propertyCount int) *Instance {
	props := make([]Object, propertyCount)
	for i := range props {
		props[i] = NullValue
	}
	return &Instance{ModelIndex: modelIndex, Properties: &props}
}

func (*Instance) Type() string   { return "instance" }
func (i *Instance) Truthy() bool { return true }
func (i *Instance) String() string {
	return "instance"
}
