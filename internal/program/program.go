// Package program defines the compiled artifact the compiler produces
// and the VM executes: models, functions, the deduplicated constant
// pool, and the metadata needed to locate a script's entry point and
// initialize its top-level locals.
//
// A Program is also what gets written to and read from a .lucky file;
// see format.go for the exact binary layout, transcribed from the
// original compiler's Program::serialize/deserialize.
package program

import (
	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/token"
)

// Model describes one `model` definition: its declared properties, in
// declaration order, and the functions implemented for it (via
// `implement`), keyed by name to the function's index in Program.Functions.
type Model struct {
	PropertyIndices map[string]int
	PropertyNames   []string
	Functions       map[string]int
}

// NewModel returns an empty Model ready for AddProperty calls.
func NewModel() *Model {
	return &Model{
		PropertyIndices: make(map[string]int),
		Functions:       make(map[string]int),
	}
}

// AddProperty appends name as the next property if it isn't already
// declared, reporting whether it was added.
func (m *Model) AddProperty(name string) bool {
	if _, exists := m.PropertyIndices[name]; exists {
		return false
	}
	m.PropertyIndices[name] = len(m.PropertyIndices)
	m.PropertyNames = append(m.PropertyNames, name)
	return true
}

// Function is one compiled function body: parameter arity, the number
// of local slots its frame needs, where its `rescue` handler starts (0
// if it has none), whether it is an instance method (its first
// parameter is implicitly `this`), and its instruction stream.
type Function struct {
	ParameterCount     int
	LocalVariableCount int
	RescuePosition     int
	IsInstance         bool
	Instructions       []bytecode.Instruction

	// Positions holds the source position each instruction in
	// Instructions was emitted for, for runtime error reporting. It is
	// in-memory-only bookkeeping: format.go's .lucky layout (matching
	// the original's decision to omit file_info/debug_info) never
	// serializes it, so a Program loaded from disk runs with every
	// Positions entry absent and reports token.NonePosition on error.
	Positions []token.Position
}

// Program is the complete compiled output of one or more dependency-
// solved source files: every model and function across the whole
// dependency graph, a single deduplicated constant pool, and the
// metadata needed to run the program from its entry point.
type Program struct {
	Models    []*Model
	Functions []*Function
	Constants []object.Object

	// GlobalDependencies lists constant-pool indices of String constants
	// naming every global identifier this program's functions reference;
	// a host embedding the VM uses this to verify every global it must
	// provide is actually registered before Run is called.
	GlobalDependencies []int

	// LocalVariableCount is the number of module-level `local` slots
	// shared across every top-level function (the "context" locals
	// ContextGet/ContextSet address).
	LocalVariableCount int

	// LocalValues maps a module-level local slot index to the constant
	// pool index it should be initialized from before Run starts.
	LocalValues map[int]int

	// EntryPoint is 1 + the index into Functions of the function named
	// `main`; 0 means the program has no entry point (a library-only
	// compilation unit meant only to be included).
	EntryPoint int

	intConstIndices map[int64]int
	strConstIndices map[string]int
}

// Constant pool slot 0, 1, 2 are always Null, true, false: every
// program begins with them already present, and they are never
// reserialized (see format.go), matching the original's
// Program::DEFAULT_CONSTANTS.
const (
	NullConstantIndex  = 0
	TrueConstantIndex  = 1
	FalseConstantIndex = 2
)

// New returns a Program whose constant pool already holds the three
// default constants at their fixed indices.
func New() *Program {
	return &Program{
		Constants: []object.Object{
			object.NullValue,
			object.Boolean(true),
			object.Boolean(false),
		},
		LocalValues:     make(map[int]int),
		intConstIndices: make(map[int64]int),
		strConstIndices: make(map[string]int),
	}
}

// AddConstant appends value to the constant pool, deduplicating
// Integer and String constants against ones already present (matching
// the original compiler: every other constant kind, including Model
// and Function references, is appended unconditionally since two
// otherwise-equal Model/Function constants never arise from one
// compilation).
func (p *Program) AddConstant(value object.Object) int {
	switch v := value.(type) {
	case object.Integer:
		if idx, ok := p.intConstIndices[int64(v)]; ok {
			return idx
		}
		idx := len(p.Constants)
		p.Constants = append(p.Constants, v)
		p.intConstIndices[int64(v)] = idx
		return idx
	case *object.String:
		if idx, ok := p.strConstIndices[v.Value]; ok {
			return idx
		}
		idx := len(p.Constants)
		p.Constants = append(p.Constants, v)
		p.strConstIndices[v.Value] = idx
		return idx
	default:
		idx := len(p.Constants)
		p.Constants = append(p.Constants, value)
		return idx
	}
}

// AddModel appends model and returns its index.
func (p *Program) AddModel(model *Model) int {
	p.Models = append(p.Models, model)
	return len(p.Models) - 1
}

// AddFunction appends fn and returns its index.
func (p *Program) AddFunction(fn *Function) int {
	p.Functions = append(p.Functions, fn)
	return len(p.Functions) - 1
}
