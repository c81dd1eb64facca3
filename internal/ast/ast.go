// Package ast defines the abstract syntax tree nodes produced by the
// parser and consumed by the compiler.
package ast

import "github.com/piescript-lang/piescript/internal/token"

// Node is implemented by every AST node. Tok returns the token that began
// the node, carried purely for diagnostics (error positions, debug info).
type Node interface {
	Tok() token.Token
}

// Expression is a node that evaluates to a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node that executes for effect (and, in the case of an
// ExpressionStatement wrapping an If, may also leave a value).
type Statement interface {
	Node
	statementNode()
}

// Definition is a top-level construct: local, include, model, function,
// implement, or apply.
type Definition interface {
	Node
	definitionNode()
}

// Document is the parsed form of one source file.
type Document struct {
	Filename    string
	Definitions []Definition
	// Dependencies lists the filenames named by this document's Include
	// definitions, in source order, for the dependency solver.
	Dependencies []string
}

type Base struct {
	Token token.Token
}

func (b Base) Tok() token.Token { return b.Token }

// ---- Definitions ----

// LocalDef is a module-scope constant binding: `local name [= const], ...`.
type LocalDef struct {
	Base
	Names  []string
	Values []Expression // nil entry where no initializer was given
}

func (*LocalDef) definitionNode() {}

// IncludeAlias binds a local alias to a public name exported by Module.
type IncludeAlias struct {
	Alias      string
	PublicName string
}

// IncludeDef is `include "<file>" as a, b from m1, m2`.
type IncludeDef struct {
	Base
	Filename string
	Aliases  []IncludeAlias
}

func (*IncludeDef) definitionNode() {}

// ModelDef is `[public] model Name prop1, prop2 end`.
type ModelDef struct {
	Base
	Name       string
	Public     bool
	Properties []string
}

func (*ModelDef) definitionNode() {}

// FunctionDef is `[public] function name(params) body end`.
type FunctionDef struct {
	Base
	Name       string
	Public     bool
	Parameters []string // "this" present as first entry means an instance method
	Body       []Statement
}

func (*FunctionDef) definitionNode() {}

// ImplementDef is `implement ModelName function ... end ... end`.
type ImplementDef struct {
	Base
	ModelName string
	Functions []*FunctionDef
}

func (*ImplementDef) definitionNode() {}

// ApplyDef is `apply SourceModel to TargetModel`.
type ApplyDef struct {
	Base
	Source string
	Target string
}

func (*ApplyDef) definitionNode() {}

// ---- Expressions ----

type IntegerLiteral struct {
	Base
	Value int64
}

func (*IntegerLiteral) expressionNode() {}

type FloatLiteral struct {
	Base
	Value float64
}

func (*FloatLiteral) expressionNode() {}

type StringLiteral struct {
	Base
	Value string
}

func (*StringLiteral) expressionNode() {}

type BooleanLiteral struct {
	Base
	Value bool
}

func (*BooleanLiteral) expressionNode() {}

type NullLiteral struct{ Base }

func (*NullLiteral) expressionNode() {}

type Identifier struct {
	Base
	Name string
}

func (*Identifier) expressionNode() {}

// This is the receiver inside an instance function.
type This struct{ Base }

func (*This) expressionNode() {}

type ArrayLiteral struct {
	Base
	Elements []Expression
}

func (*ArrayLiteral) expressionNode() {}

// Prefix is a unary operator expression: `-x` or `not x`.
type Prefix struct {
	Base
	Operator string
	Right    Expression
}

func (*Prefix) expressionNode() {}

// Infix is a binary operator expression, including assignment and
// compound-assignment operators (`=`, `+=`, ...).
type Infix struct {
	Base
	Left     Expression
	Operator string
	Right    Expression
}

func (*Infix) expressionNode() {}

// Call is a function/method call: `callee(args...)`.
type Call struct {
	Base
	Callee    Expression
	Arguments []Expression
}

func (*Call) expressionNode() {}

// InstanceGet is `receiver.name` (property or method reference).
type InstanceGet struct {
	Base
	Receiver Expression
	Name     string
}

func (*InstanceGet) expressionNode() {}

// IndexGet is `receiver[index]`.
type IndexGet struct {
	Base
	Receiver Expression
	Index    Expression
}

func (*IndexGet) expressionNode() {}

// If is an expression: it evaluates to the value of whichever branch ran.
//
// An `elseif` clause is not a distinct field here: the parser represents
// `elseif cond ... ` as a nested *If wrapped in a single ExpressionStatement
// inside Else, so the compiler's uniform "last statement's value becomes the
// branch's value" handling covers elseif chains without special-casing them.
type If struct {
	Base
	Condition Expression
	Then      []Statement
	Else      []Statement
}

func (*If) expressionNode() {}

// ---- Statements ----

type ExpressionStatement struct {
	Base
	Expression Expression
}

func (*ExpressionStatement) statementNode() {}

// LocalStatement is a block-scoped local declaration inside a function body.
type LocalStatement struct {
	Base
	Names  []string
	Values []Expression // nil entry where no initializer was given
}

func (*LocalStatement) statementNode() {}

type ReturnStatement struct {
	Base
	Value Expression // nil for a bare `return`
}

func (*ReturnStatement) statementNode() {}

type BreakStatement struct{ Base }

func (*BreakStatement) statementNode() {}

// RescueStatement marks the function's rescue point; legal only as a
// top-level statement of a function body.
type RescueStatement struct{ Base }

func (*RescueStatement) statementNode() {}

// ForStatement is `for ident in expr <body> end`.
type ForStatement struct {
	Base
	Variable   string
	Enumerable Expression
	Body       []Statement
}

func (*ForStatement) statementNode() {}

// NewBase constructs the embeddable base type sharing a token across nodes
// in the same package; exported so the parser can build nodes concisely.
func NewBase(tok token.Token) Base { return Base{Token: tok} }
