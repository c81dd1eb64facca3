package compiler

import (
	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
)

func (e *Env) compileStatement(ctx *Context, fs *FunctionState, stmt ast.Statement) {
	fs.CurrentDepth++
	defer func() { fs.CurrentDepth-- }()

	switch st := stmt.(type) {
	case *ast.ReturnStatement:
		if st.Value != nil {
			e.compileExpression(ctx, fs, st.Value)
		} else {
			fs.emitOp(bytecode.PushConstant, program.NullConstantIndex, st.Tok().Position)
		}
		fs.emitOp(bytecode.Return, 0, st.Tok().Position)
	case *ast.ExpressionStatement:
		e.compileExpression(ctx, fs, st.Expression)
		fs.emitOpWithoutPosition(bytecode.Pop)
	case *ast.LocalStatement:
		for i, name := range st.Names {
			index, ok := fs.defineLocal(name)
			if !ok {
				e.Errors.Add(st.Tok(), "variable already exists")
				continue
			}
			if i < len(st.Values) && st.Values[i] != nil {
				e.compileExpression(ctx, fs, st.Values[i])
				fs.emitOp(bytecode.LocalInit, int64(index), st.Tok().Position)
			}
		}
	case *ast.BreakStatement:
		fs.emitBreak(st.Tok().Position)
	case *ast.RescueStatement:
		if fs.CurrentDepth > 1 {
			e.Errors.Add(st.Tok(), "rescue can only be used at the top level of a function")
		} else {
			fs.emitReturn(st.Tok().Position)
			fs.RescuePosition = fs.nextInstructionIndex()
		}
	case *ast.ForStatement:
		e.compileForStatement(ctx, fs, st)
	default:
		e.Errors.Add(stmt.Tok(), "unknown statement")
	}
}

// compileForStatement compiles `for ident in enumerable ... end`. Two
// anonymous local slots hold the enumerable value and the integer
// iteration counter; ForNext reads both each iteration, pushing the
// next element (if any) and a boolean "done" flag, and Iterate bumps
// the counter at the bottom of the loop body before jumping back.
func (e *Env) compileForStatement(ctx *Context, fs *FunctionState, forStmt *ast.ForStatement) {
	enumerableLocal := fs.defineAnonymousLocal()
	iteratorLocal := fs.defineAnonymousLocal()

	fs.enterScope()
	fs.enterBreakScope()

	e.compileExpression(ctx, fs, forStmt.Enumerable)
	fs.emitOp(bytecode.LocalSet, int64(enumerableLocal), fs.lastPosition())
	fs.emitOpWithoutPosition(bytecode.Pop)

	zeroIdx := ctx.Program.AddConstant(object.Integer(0))
	fs.emitOp(bytecode.PushConstant, int64(zeroIdx), fs.lastPosition())
	fs.emitOp(bytecode.LocalSet, int64(iteratorLocal), fs.lastPosition())
	fs.emitOpWithoutPosition(bytecode.Pop)

	// A fresh scope was just entered, so the loop variable can never
	// collide with an existing binding.
	loopVarLocal, _ := fs.defineLocal(forStmt.Variable)

	loopStart := fs.nextInstructionIndex()
	fs.emitOp(bytecode.ForNext, int64(enumerableLocal), fs.lastPosition())

	jumpIfDoneIndex := fs.nextInstructionIndex()
	fs.emitOpWithoutPosition(bytecode.JumpIf)

	fs.emitOp(bytecode.LocalSet, int64(loopVarLocal), forStmt.Tok().Position)
	fs.emitOpWithoutPosition(bytecode.Pop)

	for _, stmt := range forStmt.Body {
		e.compileStatement(ctx, fs, stmt)
	}
	fs.emitOp(bytecode.Iterate, int64(iteratorLocal), fs.lastPosition())
	fs.emitOp(bytecode.Jump, int64(loopStart), fs.lastPosition())

	endPosition := fs.nextInstructionIndex()
	fs.replaceInstruction(jumpIfDoneIndex, bytecode.NewInstruction(bytecode.JumpIf, int64(endPosition)))

	fs.exitBreakScope()
	fs.exitScope()
}
