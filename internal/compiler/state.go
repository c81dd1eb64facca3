// Package compiler turns a dependency-solved set of ast.Document values
// into a single program.Program: one pass per document, in dependency
// order, sharing one constant pool, model table, and function table
// across the whole compiled graph.
package compiler

import (
	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/diag"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/token"
)

// AssemblyState is the per-document record the compiler keeps once a
// document has been compiled: its dependency-solver filename, the
// order it was compiled in (used for file_info-style bookkeeping), and
// the constant-pool indices of its `public` models and functions, so a
// later document's `include` can resolve them by public name.
type AssemblyState struct {
	Filename      string
	Index         int
	PublicIndices map[string]int
}

func newAssemblyState(filename string, index int) *AssemblyState {
	return &AssemblyState{Filename: filename, Index: index, PublicIndices: make(map[string]int)}
}

// Context is the compiler state shared across every document being
// compiled together: the program under construction, plus the
// assembly states of documents compiled so far (for resolving
// `include`).
type Context struct {
	Program        *program.Program
	assemblyStates map[string]*AssemblyState
}

// NewContext returns an empty compiler Context.
func NewContext() *Context {
	return &Context{
		Program:        program.New(),
		assemblyStates: make(map[string]*AssemblyState),
	}
}

func (c *Context) loadedFilenames() map[string]bool {
	out := make(map[string]bool, len(c.assemblyStates))
	for filename := range c.assemblyStates {
		out[filename] = true
	}
	return out
}

func (c *Context) findConstantIndexByInclude(assemblyFilename, publicName string) (int, bool) {
	state, ok := c.assemblyStates[assemblyFilename]
	if !ok {
		return 0, false
	}
	idx, ok := state.PublicIndices[publicName]
	return idx, ok
}

func (c *Context) getLocalValue(localIndex int) (object.Object, bool) {
	constIdx, ok := c.Program.LocalValues[localIndex]
	if !ok {
		return nil, false
	}
	if constIdx < 0 || constIdx >= len(c.Program.Constants) {
		return nil, false
	}
	return c.Program.Constants[constIdx], true
}

// scope is one lexical block's name-to-local-slot bindings.
type scope map[string]int

// breakScope collects the indices of Jump instructions emitted by
// `break` inside one loop, backpatched once the loop's exit address is
// known.
type breakScope []int

// FunctionState accumulates one function body's instructions as it
// compiles, tracking lexical scopes (for local-slot resolution),
// break targets, and how deep into nested statement blocks compilation
// currently is (so `rescue` can be rejected outside the top level).
type FunctionState struct {
	IsInstance         bool
	ParameterCount     int
	LocalVariableCount int
	CurrentDepth       int
	RescuePosition     int

	scopes      []scope
	breakScopes []breakScope

	Instructions []bytecode.Instruction
	positions    []token.Position
}

// NewFunctionState returns a FunctionState with its outermost scope
// already entered.
func NewFunctionState() *FunctionState {
	fs := &FunctionState{}
	fs.enterScope()
	return fs
}

func (fs *FunctionState) lastPosition() token.Position {
	if len(fs.positions) == 0 {
		return token.NonePosition
	}
	return fs.positions[len(fs.positions)-1]
}

func (fs *FunctionState) emit(instr bytecode.Instruction, pos token.Position) int {
	index := len(fs.Instructions)
	fs.Instructions = append(fs.Instructions, instr)
	fs.positions = append(fs.positions, pos)
	return index
}

func (fs *FunctionState) emitOp(op bytecode.Opcode, operand int64, pos token.Position) int {
	return fs.emit(bytecode.NewInstruction(op, operand), pos)
}

func (fs *FunctionState) emitOpWithoutPosition(op bytecode.Opcode) int {
	return fs.emitOp(op, 0, fs.lastPosition())
}

func (fs *FunctionState) nextInstructionIndex() int {
	return len(fs.Instructions)
}

// removePopOrPushNull makes the last statement compiled leave exactly
// one value on the stack, the mechanism that lets `if` and a function
// body behave as an "expression whose value is whatever
// its last statement produced": a trailing expression-statement's Pop
// is undone (so its value survives instead of being discarded), a
// trailing Return is left alone (it already leaves nothing to fix up),
// and anything else (a bare `local` statement, an empty block) gets an
// explicit Null pushed.
func (fs *FunctionState) removePopOrPushNull() {
	if len(fs.Instructions) == 0 {
		fs.emitOp(bytecode.PushConstant, program.NullConstantIndex, fs.lastPosition())
		return
	}

	last := fs.Instructions[len(fs.Instructions)-1]
	switch last.Opcode() {
	case bytecode.Pop:
		fs.Instructions = fs.Instructions[:len(fs.Instructions)-1]
		fs.positions = fs.positions[:len(fs.positions)-1]
	case bytecode.Return:
		// already leaves the right thing behind
	default:
		fs.emitOp(bytecode.PushConstant, program.NullConstantIndex, fs.lastPosition())
	}
}

func (fs *FunctionState) emitReturn(pos token.Position) {
	fs.removePopOrPushNull()
	if len(fs.Instructions) == 0 || fs.Instructions[len(fs.Instructions)-1].Opcode() != bytecode.Return {
		fs.emitOp(bytecode.Return, 0, pos)
	}
}

// emitBreak is a silent no-op outside any loop — the original's
// deliberately preserved ambiguity (spec.md §9): a `break` that isn't
// lexically inside a `for` body compiles to nothing rather than being
// rejected.
func (fs *FunctionState) emitBreak(pos token.Position) {
	if len(fs.breakScopes) == 0 {
		return
	}
	index := fs.emitOpWithoutPosition(bytecode.Jump)
	last := len(fs.breakScopes) - 1
	fs.breakScopes[last] = append(fs.breakScopes[last], index)
}

func (fs *FunctionState) replaceInstruction(index int, instr bytecode.Instruction) {
	fs.Instructions[index] = instr
}

func (fs *FunctionState) findLocal(name string) (int, bool) {
	for i := len(fs.scopes) - 1; i >= 0; i-- {
		if idx, ok := fs.scopes[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (fs *FunctionState) enterScope() {
	fs.scopes = append(fs.scopes, scope{})
}

func (fs *FunctionState) exitScope() {
	fs.scopes = fs.scopes[:len(fs.scopes)-1]
}

func (fs *FunctionState) enterBreakScope() {
	fs.breakScopes = append(fs.breakScopes, breakScope{})
}

// exitBreakScope backpatches every break Jump recorded in the
// innermost break scope to the current (loop-exit) instruction index.
func (fs *FunctionState) exitBreakScope() {
	target := int64(fs.nextInstructionIndex())
	last := len(fs.breakScopes) - 1
	for _, index := range fs.breakScopes[last] {
		fs.replaceInstruction(index, bytecode.NewInstruction(bytecode.Jump, target))
	}
	fs.breakScopes = fs.breakScopes[:last]
}

func (fs *FunctionState) defineLocal(name string) (int, bool) {
	s := fs.scopes[len(fs.scopes)-1]
	if _, exists := s[name]; exists {
		return 0, false
	}
	index := fs.LocalVariableCount
	s[name] = index
	fs.LocalVariableCount++
	return index, true
}

func (fs *FunctionState) defineAnonymousLocal() int {
	index := fs.LocalVariableCount
	fs.LocalVariableCount++
	return index
}

// Env is the per-document compilation environment: the document's
// assembly bookkeeping, its module-scope `local`/`model`/`function`
// bindings (resolved via ContextGet/ContextSet once compiled), and the
// diagnostics raised while compiling it.
type Env struct {
	Assembly *AssemblyState
	Locals   scope
	Errors   diag.List
}

func newEnv(filename string, index int) *Env {
	return &Env{
		Assembly: newAssemblyState(filename, index),
		Locals:   scope{},
	}
}

func (e *Env) defineLocal(ctx *Context, name string) (int, bool) {
	if _, exists := e.Locals[name]; exists {
		return 0, false
	}
	index := ctx.Program.LocalVariableCount
	e.Locals[name] = index
	ctx.Program.LocalVariableCount++
	return index, true
}

func (e *Env) defineLocalByName(ctx *Context, tok token.Token, name string) (int, bool) {
	index, ok := e.defineLocal(ctx, name)
	if !ok {
		e.Errors.Add(tok, "variable already exists")
	}
	return index, ok
}
