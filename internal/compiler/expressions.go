package compiler

import (
	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/token"
)

func (e *Env) compileExpression(ctx *Context, fs *FunctionState, expr ast.Expression) {
	switch ex := expr.(type) {
	case *ast.IntegerLiteral:
		idx := ctx.Program.AddConstant(object.Integer(ex.Value))
		fs.emitOp(bytecode.PushConstant, int64(idx), ex.Tok().Position)
	case *ast.FloatLiteral:
		idx := ctx.Program.AddConstant(object.Float(ex.Value))
		fs.emitOp(bytecode.PushConstant, int64(idx), ex.Tok().Position)
	case *ast.StringLiteral:
		idx := ctx.Program.AddConstant(object.NewString(ex.Value))
		fs.emitOp(bytecode.PushConstant, int64(idx), ex.Tok().Position)
	case *ast.BooleanLiteral:
		if ex.Value {
			fs.emitOp(bytecode.PushConstant, program.TrueConstantIndex, ex.Tok().Position)
		} else {
			fs.emitOp(bytecode.PushConstant, program.FalseConstantIndex, ex.Tok().Position)
		}
	case *ast.NullLiteral:
		fs.emitOp(bytecode.PushConstant, program.NullConstantIndex, ex.Tok().Position)
	case *ast.ArrayLiteral:
		e.compileArrayExpression(ctx, fs, ex)
	case *ast.Identifier:
		e.compileIdentifierExpression(ctx, fs, ex)
	case *ast.This:
		fs.emitOp(bytecode.LocalGet, 0, ex.Tok().Position)
	case *ast.Prefix:
		e.compilePrefixExpression(ctx, fs, ex)
	case *ast.Infix:
		e.compileInfixExpression(ctx, fs, ex)
	case *ast.Call:
		e.compileCallExpression(ctx, fs, ex)
	case *ast.InstanceGet:
		e.compileExpression(ctx, fs, ex.Receiver)
		idx := ctx.Program.AddConstant(object.NewString(ex.Name))
		fs.emitOp(bytecode.PushConstant, int64(idx), ex.Tok().Position)
		fs.emitOp(bytecode.InstanceGet, 0, ex.Tok().Position)
	case *ast.IndexGet:
		e.compileExpression(ctx, fs, ex.Receiver)
		e.compileExpression(ctx, fs, ex.Index)
		fs.emitOp(bytecode.IndexGet, 0, ex.Tok().Position)
	case *ast.If:
		e.compileIfExpression(ctx, fs, ex)
	default:
		e.Errors.Add(expr.Tok(), "unknown expression")
	}
}

func (e *Env) compileArrayExpression(ctx *Context, fs *FunctionState, array *ast.ArrayLiteral) {
	for _, element := range array.Elements {
		e.compileExpression(ctx, fs, element)
	}
	fs.emitOp(bytecode.Array, int64(len(array.Elements)), array.Tok().Position)
}

func (e *Env) compileIdentifierExpression(ctx *Context, fs *FunctionState, id *ast.Identifier) {
	if index, ok := fs.findLocal(id.Name); ok {
		fs.emitOp(bytecode.LocalGet, int64(index), id.Tok().Position)
		return
	}
	if index, ok := e.Locals[id.Name]; ok {
		fs.emitOp(bytecode.ContextGet, int64(index), id.Tok().Position)
		return
	}
	idx := ctx.Program.AddConstant(object.NewString(id.Name))
	ctx.Program.GlobalDependencies = appendUnique(ctx.Program.GlobalDependencies, idx)
	fs.emitOp(bytecode.GlobalGet, int64(idx), id.Tok().Position)
}

func appendUnique(list []int, v int) []int {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// compileIndexedSet compiles `receiver[index] = ...`'s left part: push
// the receiver, then the index, then the given set opcode (the value
// being assigned is already on the stack below them, pushed by the
// caller before this runs).
func (e *Env) compileIndexedSet(ctx *Context, fs *FunctionState, receiver, index ast.Expression, op bytecode.Opcode, pos token.Position) {
	e.compileExpression(ctx, fs, receiver)
	e.compileExpression(ctx, fs, index)
	fs.emitOp(op, 0, pos)
}

func (e *Env) compileAssignLeftPart(ctx *Context, fs *FunctionState, infix *ast.Infix) {
	switch left := infix.Left.(type) {
	case *ast.Identifier:
		if index, ok := fs.findLocal(left.Name); ok {
			fs.emitOp(bytecode.LocalSet, int64(index), infix.Tok().Position)
			return
		}
		if index, ok := e.Locals[left.Name]; ok {
			fs.emitOp(bytecode.ContextSet, int64(index), infix.Tok().Position)
			return
		}
		idx := ctx.Program.AddConstant(object.NewString(left.Name))
		ctx.Program.GlobalDependencies = appendUnique(ctx.Program.GlobalDependencies, idx)
		fs.emitOp(bytecode.GlobalSet, int64(idx), infix.Tok().Position)
	case *ast.InstanceGet:
		idx := ctx.Program.AddConstant(object.NewString(left.Name))
		e.compileExpression(ctx, fs, left.Receiver)
		fs.emitOp(bytecode.PushConstant, int64(idx), left.Tok().Position)
		fs.emitOp(bytecode.InstanceSet, 0, left.Tok().Position)
	case *ast.IndexGet:
		e.compileIndexedSet(ctx, fs, left.Receiver, left.Index, bytecode.IndexSet, left.Tok().Position)
	default:
		e.Errors.Add(infix.Tok(), "can not assign")
	}
}

func (e *Env) compileAssignExpression(ctx *Context, fs *FunctionState, infix *ast.Infix) {
	e.compileExpression(ctx, fs, infix.Right)
	e.compileAssignLeftPart(ctx, fs, infix)
}

// compoundAssignOperators maps a compound-assignment operator to the
// plain arithmetic operator it desugars to: `x += y` compiles the same
// instructions as `x + y` followed by storing the result back into x.
var compoundAssignOperators = map[string]bytecode.Operation{
	"+=": bytecode.OperationAdd,
	"-=": bytecode.OperationSub,
	"*=": bytecode.OperationMul,
	"/=": bytecode.OperationDiv,
	"%=": bytecode.OperationMod,
}

var plainOperators = map[string]bytecode.Operation{
	"+":  bytecode.OperationAdd,
	"-":  bytecode.OperationSub,
	"*":  bytecode.OperationMul,
	"/":  bytecode.OperationDiv,
	"%":  bytecode.OperationMod,
	"==": bytecode.OperationEqual,
	"!=": bytecode.OperationEqual, // followed by an extra Not below
	">":  bytecode.OperationGreater,
	"<":  bytecode.OperationLess,
	">=": bytecode.OperationGreaterEqual,
	"<=": bytecode.OperationLessEqual,
	"&&": bytecode.OperationAnd,
	"||": bytecode.OperationOr,
}

func (e *Env) compileInfixExpression(ctx *Context, fs *FunctionState, infix *ast.Infix) {
	if infix.Operator == "=" {
		e.compileAssignExpression(ctx, fs, infix)
		return
	}

	operand, isCompound := compoundAssignOperators[infix.Operator]
	if !isCompound {
		operand, isCompound = plainOperators[infix.Operator]
	}
	if !isCompound {
		e.Errors.Add(infix.Tok(), "unknown operation")
		return
	}

	e.compileExpression(ctx, fs, infix.Left)
	e.compileExpression(ctx, fs, infix.Right)
	fs.emitOp(bytecode.Operation, int64(operand), infix.Tok().Position)

	if infix.Operator == "!=" {
		fs.emitOp(bytecode.Not, 0, infix.Tok().Position)
	}

	if _, ok := compoundAssignOperators[infix.Operator]; ok {
		e.compileAssignLeftPart(ctx, fs, infix)
	}
}

func (e *Env) compilePrefixExpression(ctx *Context, fs *FunctionState, prefix *ast.Prefix) {
	e.compileExpression(ctx, fs, prefix.Right)

	switch prefix.Operator {
	case "-":
		fs.emitOp(bytecode.Negative, 0, prefix.Tok().Position)
	case "not":
		fs.emitOp(bytecode.Not, 0, prefix.Tok().Position)
	default:
		e.Errors.Add(prefix.Tok(), "unknown operation")
	}
}

func (e *Env) compileCallExpression(ctx *Context, fs *FunctionState, call *ast.Call) {
	e.compileExpression(ctx, fs, call.Callee)
	for _, arg := range call.Arguments {
		e.compileExpression(ctx, fs, arg)
	}
	fs.emitOp(bytecode.Call, int64(len(call.Arguments)), call.Tok().Position)
}

// compileIfExpression compiles `if`/`else`/`elseif` as a single
// expression that leaves exactly one value on the stack: the false
// branch is compiled first (so the unconditional jump past it can be
// placed right after), each branch runs removePopOrPushNull so its
// last statement's value becomes the branch's value, and an absent
// `else` compiles to a bare Null push. `elseif` needs no separate
// handling here: the parser nests it as a single ExpressionStatement
// wrapping another *ast.If inside Else, and this same code path
// recompiles that nested If as the false branch's sole statement.
func (e *Env) compileIfExpression(ctx *Context, fs *FunctionState, ifExpr *ast.If) {
	e.compileExpression(ctx, fs, ifExpr.Condition)

	jumpIfIndex := fs.emitOpWithoutPosition(bytecode.JumpIf)

	if len(ifExpr.Else) > 0 {
		fs.enterScope()
		for _, stmt := range ifExpr.Else {
			e.compileStatement(ctx, fs, stmt)
		}
		fs.exitScope()
		fs.removePopOrPushNull()
	} else {
		fs.emitOp(bytecode.PushConstant, program.NullConstantIndex, fs.lastPosition())
	}

	jumpToEndIndex := fs.emitOpWithoutPosition(bytecode.Jump)

	fs.replaceInstruction(jumpIfIndex, bytecode.NewInstruction(bytecode.JumpIf, int64(fs.nextInstructionIndex())))

	fs.enterScope()
	for _, stmt := range ifExpr.Then {
		e.compileStatement(ctx, fs, stmt)
	}
	fs.exitScope()
	fs.removePopOrPushNull()

	fs.replaceInstruction(jumpToEndIndex, bytecode.NewInstruction(bytecode.Jump, int64(fs.nextInstructionIndex())))
}
