// Package nativeiface defines the embedding surface a host program
// uses to extend the VM with Go-implemented functions, models, and
// instances (spec.md §6's host API). This package holds interfaces
// only — no concrete native library (I/O, math, random, networking)
// ships here; that "standard library of native models" is explicitly
// out of scope (spec.md §1 Non-goals) and is a collaborator's job to
// provide by implementing these interfaces.
package nativeiface

import "github.com/piescript-lang/piescript/internal/object"

// Host is the subset of VM behavior a native implementation is allowed
// to depend on: raising a runtime error at the current position, and
// calling back into a PieScript function value (e.g. a callback an
// instance method was handed).
type Host interface {
	// RaiseError aborts the current call with a runtime error carrying
	// message and the VM's current source position.
	RaiseError(message string) error
	// CallFunction invokes a PieScript Function or NativeFunction value
	// with args, returning its single result.
	CallFunction(fn object.Object, args []object.Object) (object.Object, error)
}

// NativeFunction is a Go function registered under a global name,
// callable from PieScript exactly like a compiled Function constant.
type NativeFunction func(host Host, args []object.Object) (object.Object, error)

// NativeModel is a host-provided model: it can construct new
// NativeInstance values and report its property names. The VM's `for`
// loop does not iterate native models or native instances.
type NativeModel interface {
	Name() string
	PropertyNames() []string
	New(host Host, args []object.Object) (NativeInstance, error)
}

// NativeInstance is a host-provided instance: property access and
// method calls are routed to it instead of the compiled Instance
// property table.
type NativeInstance interface {
	object.Object
	Get(host Host, name string) (object.Object, error)
	Set(host Host, name string, value object.Object) error
	Call(host Host, name string, args []object.Object) (object.Object, error)
}

// BoundNativeMethod is the value a NativeInstance's Get returns when a
// property key names a callable method rather than a data property —
// the native-side equivalent of object.BoundMethod for compiled
// instances. The VM's Call opcode dispatches one of these to
// Instance.Call(host, Name, args) instead of the compiled call paths.
type BoundNativeMethod struct {
	Instance NativeInstance
	Name     string
}

func (BoundNativeMethod) Type() string     { return "function" }
func (BoundNativeMethod) Truthy() bool     { return true }
func (m BoundNativeMethod) String() string { return m.Name }
