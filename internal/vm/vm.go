// Package vm executes a compiled program.Program: a stack-based
// interpreter with call frames, operator and meta-method dispatch, the
// for-loop iterator protocol, and a rescue/unwind mechanism, closely
// modeled on the teacher's pkg/vm but driven by bytecode.Instruction
// values instead of Smalltalk message sends.
//
// A worked trace: running `1 + 2` compiles to
// [PushConstant 3, PushConstant 4, Operation OperationAdd, Return]
// with constants [null, true, false, 1, 2] (slots 0-2 are reserved). The dispatch loop pushes Integer(1), pushes
// Integer(2), pops both for Operation (left=1, right=2, operand=Add),
// pushes Integer(3), then Return hands that single value back to
// whatever called execute().
package vm

import (
	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/nativeiface"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/token"
)

// Frame is one function activation: its locals (sized to the
// function's LocalVariableCount, parameters already populated),
// the program counter into Function.Instructions, and stackBase, the
// vm.stack length when the frame was pushed — Return truncates back to
// it, and rescue resets the operand stack to it on unwind.
type Frame struct {
	Function   *program.Function
	Locals     []object.Object
	PC         int
	StackBase  int
	LastResult object.Object
}

func (f *Frame) position() token.Position {
	if f.PC >= 0 && f.PC < len(f.Function.Positions) {
		return f.Function.Positions[f.PC]
	}
	return token.NonePosition
}

// nativeFunctionValue boxes a host-registered nativeiface.NativeFunction
// as an object.Object so it can live in vm.globals and be pushed onto
// the stack like any compiled Function constant.
type nativeFunctionValue struct {
	name string
	fn   nativeiface.NativeFunction
}

func (nativeFunctionValue) Type() string    { return "function" }
func (nativeFunctionValue) Truthy() bool    { return true }
func (v nativeFunctionValue) String() string { return v.name }

// nativeModelValue boxes a host-registered nativeiface.NativeModel.
type nativeModelValue struct {
	model nativeiface.NativeModel
}

func (nativeModelValue) Type() string     { return "model" }
func (nativeModelValue) Truthy() bool     { return true }
func (v nativeModelValue) String() string { return v.model.Name() }

// VM holds one program's execution state: the compiled program,
// module-scope context locals (the module's `local` bindings), the
// globals table a host must populate before running (named by
// Program.GlobalDependencies), the shared operand stack, and the LIFO
// of active frames.
type VM struct {
	Program *program.Program

	contextLocals []object.Object
	globals       map[string]object.Object
	stack         []object.Object
	frames        []*Frame

	lastPosition token.Position
}

// New returns a VM ready to run p. The module-scope context locals are
// initialized from p.LocalValues immediately; globals must be supplied
// through AddNativeFunction/AddNativeModel (or SetGlobal for a host's
// own already-constructed values) before Execute is called, or any
// GlobalGet of an unbound name raises a runtime error; GlobalSet binds
// the name whether or not it was bound before.
func New(p *program.Program) *VM {
	v := &VM{
		Program:       p,
		contextLocals: make([]object.Object, p.LocalVariableCount),
		globals:       make(map[string]object.Object),
	}
	for i := range v.contextLocals {
		v.contextLocals[i] = object.NullValue
	}
	for slot, constIdx := range p.LocalValues {
		if slot >= 0 && slot < len(v.contextLocals) && constIdx >= 0 && constIdx < len(p.Constants) {
			v.contextLocals[slot] = p.Constants[constIdx]
		}
	}
	return v
}

// AddNativeFunction registers fn under name, callable from PieScript
// exactly like a compiled function constant.
func (v *VM) AddNativeFunction(name string, fn nativeiface.NativeFunction) {
	v.globals[name] = nativeFunctionValue{name: name, fn: fn}
}

// AddNativeModel registers model under its own Name(), usable as a
// Model value (calling it constructs a NativeInstance). A `for` loop
// over a native model or native instance ends without iterating.
func (v *VM) AddNativeModel(model nativeiface.NativeModel) {
	v.globals[model.Name()] = nativeModelValue{model: model}
}

// SetGlobal binds name directly to value, for a host that already has
// an object.Object (e.g. one produced by an earlier execution) rather
// than a fresh native function or model.
func (v *VM) SetGlobal(name string, value object.Object) {
	v.globals[name] = value
}

// MissingGlobals reports every name in Program.GlobalDependencies not
// yet bound via AddNativeFunction/AddNativeModel/SetGlobal, so a host
// can verify its embedding is complete before calling Execute.
func (v *VM) MissingGlobals() []string {
	var missing []string
	for _, idx := range v.Program.GlobalDependencies {
		if idx < 0 || idx >= len(v.Program.Constants) {
			continue
		}
		name, ok := v.Program.Constants[idx].(*object.String)
		if !ok {
			continue
		}
		if _, bound := v.globals[name.Value]; !bound {
			missing = append(missing, name.Value)
		}
	}
	return missing
}

// LastPosition returns the source position of the instruction the VM
// dispatched most recently (the failing one, after an error); satisfies
// nativeiface.Host and the host embedding API's last_position().
func (v *VM) LastPosition() token.Position {
	return v.lastPosition
}

// RaiseError implements nativeiface.Host: a native function calls this
// to abort with a runtime error at the VM's current position.
func (v *VM) RaiseError(message string) error {
	return newRuntimeError(v.lastPosition, "%s", message)
}

// Execute runs the program from its entry point (Program.EntryPoint -
// 1, PieScript's `main`) with no arguments, returning main's result.
// A program with no entry point (EntryPoint == 0) runs as a no-op,
// returning Null.
func (v *VM) Execute() (object.Object, error) {
	if v.Program.EntryPoint == 0 {
		return object.NullValue, nil
	}
	return v.ExecuteByFunctionIndex(v.Program.EntryPoint-1, nil)
}

// ExecuteByFunctionIndex runs Program.Functions[index] with args bound
// to its leading locals, to completion, returning its result. Implements
// nativeiface.Host's CallFunction for a compiled Function value and the
// host embedding API's execute_by_function_index().
func (v *VM) ExecuteByFunctionIndex(index int, args []object.Object) (object.Object, error) {
	if index < 0 || index >= len(v.Program.Functions) {
		return nil, newRuntimeError(v.lastPosition, "unknown function")
	}
	floor := len(v.frames)
	v.pushFrame(v.Program.Functions[index], args)
	if err := v.run(floor); err != nil {
		return nil, err
	}
	if len(v.stack) == 0 {
		return object.NullValue, nil
	}
	return v.popStack(), nil
}

// CallFunction implements nativeiface.Host: invoked by a native
// function to call back into a PieScript Function, BoundMethod, or
// another native function value with args, returning its single
// result. Runs to completion synchronously before returning, since the
// caller is ordinary Go code sitting outside the fetch-decode loop.
func (v *VM) CallFunction(fn object.Object, args []object.Object) (object.Object, error) {
	switch f := fn.(type) {
	case object.Function:
		return v.ExecuteByFunctionIndex(f.Index, args)
	case object.BoundMethod:
		return v.ExecuteByFunctionIndex(f.FunctionIndex, append([]object.Object{f.Instance}, args...))
	case nativeFunctionValue:
		return f.fn(v, args)
	case nativeiface.BoundNativeMethod:
		return f.Instance.Call(v, f.Name, args)
	default:
		return nil, newRuntimeError(v.lastPosition, "object of type %s is not callable", fn.Type())
	}
}

func (v *VM) pushFrame(fn *program.Function, args []object.Object) {
	locals := make([]object.Object, fn.LocalVariableCount)
	for i := range locals {
		if i < len(args) {
			locals[i] = args[i]
		} else {
			locals[i] = object.NullValue
		}
	}
	v.frames = append(v.frames, &Frame{Function: fn, Locals: locals, StackBase: len(v.stack)})
}

func (v *VM) currentFrame() *Frame {
	return v.frames[len(v.frames)-1]
}

func (v *VM) pushStack(obj object.Object) {
	v.stack = append(v.stack, obj)
}

func (v *VM) popStack() object.Object {
	last := len(v.stack) - 1
	obj := v.stack[last]
	v.stack = v.stack[:last]
	return obj
}

func (v *VM) peekStack() object.Object {
	return v.stack[len(v.stack)-1]
}

// run is the fetch-decode-dispatch loop. It executes instructions from
// the top frame until the frame stack shrinks back to floor (every
// frame pushed since run was entered has returned), or an error
// escapes every rescue point at or above floor.
func (v *VM) run(floor int) error {
	for len(v.frames) > floor {
		frame := v.currentFrame()
		if frame.PC >= len(frame.Function.Instructions) {
			// A function whose body fell off the end without an explicit
			// Return (should not happen — every compiled function ends
			// with one — but a malformed .lucky load could produce this).
			v.doReturn()
			continue
		}

		instr := frame.Function.Instructions[frame.PC]
		v.lastPosition = frame.position()
		frame.PC++

		if err := v.step(frame, instr); err != nil {
			if !v.unwind(floor, err) {
				return err
			}
		}
	}
	return nil
}

// unwind searches frames[floor:] top-down for the nearest frame with a
// RescuePosition, resuming there on a hit. A rescue established before
// a native CallFunction's own call boundary is out of reach from
// inside that nested call — each such call gets its own unwind floor,
// since nothing can safely resume a Go call frame's caller from deeper
// Go code than where it started.
func (v *VM) unwind(floor int, cause error) bool {
	for i := len(v.frames) - 1; i >= floor; i-- {
		frame := v.frames[i]
		if frame.Function.RescuePosition == 0 {
			continue
		}
		v.frames = v.frames[:i+1]
		v.stack = v.stack[:frame.StackBase]
		frame.PC = frame.Function.RescuePosition
		return true
	}
	return false
}

func (v *VM) doReturn() {
	frame := v.currentFrame()
	var result object.Object = object.NullValue
	if len(v.stack) > frame.StackBase {
		result = v.popStack()
	}
	v.stack = v.stack[:frame.StackBase]
	v.frames = v.frames[:len(v.frames)-1]
	v.pushStack(result)
}

func (v *VM) step(frame *Frame, instr bytecode.Instruction) error {
	operand := instr.Operand()

	switch instr.Opcode() {
	case bytecode.PushConstant:
		idx := int(operand)
		if idx < 0 || idx >= len(v.Program.Constants) {
			return newRuntimeError(v.lastPosition, "unknown constant %d", idx)
		}
		v.pushStack(v.Program.Constants[idx])

	case bytecode.Pop:
		v.popStack()

	case bytecode.Array:
		n := int(operand)
		elements := make([]object.Object, n)
		for i := n - 1; i >= 0; i-- {
			elements[i] = v.popStack()
		}
		v.pushStack(object.NewArray(elements))

	case bytecode.LocalGet:
		v.pushStack(v.localGet(frame, int(operand)))

	case bytecode.LocalSet:
		// Used for `x = value` as an expression: the assigned value
		// stays on the stack so a chained assignment or the enclosing
		// expression statement's Pop sees it.
		v.localSet(frame, int(operand), v.peekStack())

	case bytecode.LocalInit:
		// Used for `local x = value` as a statement: nothing should
		// leak onto the stack for a statement with no expression value.
		v.localSet(frame, int(operand), v.popStack())

	case bytecode.ContextGet:
		v.pushStack(v.contextGet(int(operand)))

	case bytecode.ContextSet:
		v.contextSet(int(operand), v.peekStack())

	case bytecode.GlobalGet:
		obj, err := v.globalGet(int(operand))
		if err != nil {
			return err
		}
		v.pushStack(obj)

	case bytecode.GlobalSet:
		if err := v.globalSet(int(operand), v.peekStack()); err != nil {
			return err
		}

	case bytecode.InstanceGet:
		key := v.popStack()
		receiver := v.popStack()
		obj, err := v.instanceGet(receiver, v.keyString(key))
		if err != nil {
			return err
		}
		v.pushStack(obj)

	case bytecode.InstanceSet:
		key := v.popStack()
		receiver := v.popStack()
		value := v.peekStack()
		if err := v.instanceSet(receiver, v.keyString(key), value); err != nil {
			return err
		}

	case bytecode.IndexGet:
		index := v.popStack()
		receiver := v.popStack()
		obj, err := v.indexGet(receiver, index)
		if err != nil {
			return err
		}
		v.pushStack(obj)

	case bytecode.IndexSet:
		index := v.popStack()
		receiver := v.popStack()
		value := v.peekStack()
		if err := v.indexSet(receiver, index, value); err != nil {
			return err
		}

	case bytecode.Jump:
		frame.PC = int(operand)

	case bytecode.JumpIf:
		if v.popStack().Truthy() {
			frame.PC = int(operand)
		}

	case bytecode.Call:
		return v.call(int(operand))

	case bytecode.Return:
		v.doReturn()

	case bytecode.ForNext:
		return v.forNext(frame, int(operand))

	case bytecode.Iterate:
		v.iterate(frame, int(operand))

	case bytecode.Operation:
		right := v.popStack()
		left := v.popStack()
		return v.binaryOperation(left, right, bytecode.Operation(operand))

	case bytecode.Negative:
		obj, err := negativeOperation(v.lastPosition, v.popStack())
		if err != nil {
			return err
		}
		v.pushStack(obj)

	case bytecode.Not:
		v.pushStack(object.Boolean(!v.popStack().Truthy()))

	default:
		return newRuntimeError(v.lastPosition, "unknown opcode %v", instr.Opcode())
	}

	return nil
}

func (v *VM) keyString(obj object.Object) string {
	if s, ok := obj.(*object.String); ok {
		return s.Value
	}
	return obj.String()
}

func (v *VM) localGet(frame *Frame, index int) object.Object {
	if index < 0 || index >= len(frame.Locals) {
		return object.NullValue
	}
	return frame.Locals[index]
}

func (v *VM) localSet(frame *Frame, index int, value object.Object) {
	if index >= len(frame.Locals) {
		grown := make([]object.Object, index+1)
		copy(grown, frame.Locals)
		for i := len(frame.Locals); i < len(grown); i++ {
			grown[i] = object.NullValue
		}
		frame.Locals = grown
	}
	frame.Locals[index] = value
}

func (v *VM) contextGet(index int) object.Object {
	if index < 0 || index >= len(v.contextLocals) {
		return object.NullValue
	}
	return v.contextLocals[index]
}

func (v *VM) contextSet(index int, value object.Object) {
	if index < 0 || index >= len(v.contextLocals) {
		return
	}
	v.contextLocals[index] = value
}

func (v *VM) globalGet(constIdx int) (object.Object, error) {
	name := v.constantName(constIdx)
	obj, ok := v.globals[name]
	if !ok {
		return nil, newRuntimeError(v.lastPosition, "unknown global %q", name)
	}
	return obj, nil
}

func (v *VM) globalSet(constIdx int, value object.Object) error {
	name := v.constantName(constIdx)
	v.globals[name] = value
	return nil
}

func (v *VM) constantName(constIdx int) string {
	if constIdx < 0 || constIdx >= len(v.Program.Constants) {
		return ""
	}
	if s, ok := v.Program.Constants[constIdx].(*object.String); ok {
		return s.Value
	}
	return ""
}

// call implements the Call opcode: pop argCount arguments plus the
// callable below them, then dispatch per spec.md's table — a compiled
// Function pushes a new frame (the run loop then simply continues, no
// recursion needed); a Model constructs a fresh Instance; everything
// else either invokes inline (native values) or errors.
func (v *VM) call(argCount int) error {
	args := make([]object.Object, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = v.popStack()
	}
	callee := v.popStack()

	switch c := callee.(type) {
	case object.Function:
		if c.Index < 0 || c.Index >= len(v.Program.Functions) {
			return newRuntimeError(v.lastPosition, "unknown function")
		}
		v.pushFrame(v.Program.Functions[c.Index], args)
		return nil

	case object.BoundMethod:
		if c.FunctionIndex < 0 || c.FunctionIndex >= len(v.Program.Functions) {
			return newRuntimeError(v.lastPosition, "unknown function")
		}
		v.pushFrame(v.Program.Functions[c.FunctionIndex], append([]object.Object{c.Instance}, args...))
		return nil

	case object.Model:
		if c.Index < 0 || c.Index >= len(v.Program.Models) {
			return newRuntimeError(v.lastPosition, "unknown model")
		}
		model := v.Program.Models[c.Index]
		v.pushStack(object.NewInstance(c.Index, len(model.PropertyNames)))
		return nil

	case nativeFunctionValue:
		result, err := c.fn(v, args)
		if err != nil {
			return err
		}
		v.pushStack(result)
		return nil

	case nativeModelValue:
		instance, err := c.model.New(v, args)
		if err != nil {
			return err
		}
		v.pushStack(instance)
		return nil

	case nativeiface.BoundNativeMethod:
		result, err := c.Instance.Call(v, c.Name, args)
		if err != nil {
			return err
		}
		v.pushStack(result)
		return nil

	default:
		return newRuntimeError(v.lastPosition, "object of type %s is not callable", callee.Type())
	}
}
