package compiler

import (
	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
)

func (e *Env) compileDefinition(ctx *Context, def ast.Definition) {
	switch d := def.(type) {
	case *ast.LocalDef:
		e.compileLocalDefinition(ctx, d)
	case *ast.IncludeDef:
		e.compileIncludeDefinition(ctx, d)
	case *ast.ModelDef:
		if d.Public {
			e.compilePublicModelDefinition(ctx, d)
		} else {
			e.compileModelDefinition(ctx, d)
		}
	case *ast.FunctionDef:
		if d.Public {
			e.compilePublicFunctionDefinition(ctx, d)
		} else {
			e.compileFunctionDefinition(ctx, d)
		}
	case *ast.ImplementDef:
		e.compileImplementDefinition(ctx, d)
	case *ast.ApplyDef:
		e.compileApplyDefinition(ctx, d)
	default:
		e.Errors.Add(def.Tok(), "unknown definition")
	}
}

// compileLocalDefinition compiles a module-scope `local name = value,
// ...`: each value must itself be a literal constant (null/true/false/
// integer/float) since module locals are initialized before any code
// runs, with no expression evaluation pass of their own.
func (e *Env) compileLocalDefinition(ctx *Context, def *ast.LocalDef) {
	for i, name := range def.Names {
		localIndex, ok := e.defineLocalByName(ctx, def.Tok(), name)
		if !ok {
			continue
		}
		if i >= len(def.Values) || def.Values[i] == nil {
			continue
		}

		constantIndex, ok := constantIndexForLiteral(ctx, def.Values[i])
		if !ok {
			e.Errors.Add(def.Values[i].Tok(), "value in local definition can be a constant only")
			continue
		}
		ctx.Program.LocalValues[localIndex] = constantIndex
	}
}

func constantIndexForLiteral(ctx *Context, expr ast.Expression) (int, bool) {
	switch v := expr.(type) {
	case *ast.NullLiteral:
		return program.NullConstantIndex, true
	case *ast.BooleanLiteral:
		if v.Value {
			return program.TrueConstantIndex, true
		}
		return program.FalseConstantIndex, true
	case *ast.IntegerLiteral:
		return ctx.Program.AddConstant(object.Integer(v.Value)), true
	case *ast.FloatLiteral:
		return ctx.Program.AddConstant(object.Float(v.Value)), true
	default:
		return 0, false
	}
}

// compileIncludeDefinition binds each local alias to the constant
// already compiled under its public name in the named document (which
// the dependency solver guarantees was compiled before this one).
func (e *Env) compileIncludeDefinition(ctx *Context, def *ast.IncludeDef) {
	for _, alias := range def.Aliases {
		index, ok := e.defineLocalByName(ctx, def.Tok(), alias.Alias)
		if !ok {
			continue
		}
		if constantIndex, ok := ctx.findConstantIndexByInclude(def.Filename, alias.PublicName); ok {
			ctx.Program.LocalValues[index] = constantIndex
		}
	}
}

// compileModelDefinition returns the constant-pool index of the
// compiled model.
func (e *Env) compileModelDefinition(ctx *Context, def *ast.ModelDef) int {
	model := program.NewModel()
	for _, name := range def.Properties {
		if !model.AddProperty(name) {
			e.Errors.Add(def.Tok(), "property already exists")
		}
	}

	modelIndex := ctx.Program.AddModel(model)
	constantIndex := ctx.Program.AddConstant(object.Model{Index: modelIndex})

	if localIndex, ok := e.defineLocalByName(ctx, def.Tok(), def.Name); ok {
		ctx.Program.LocalValues[localIndex] = constantIndex
	}

	return constantIndex
}

func (e *Env) compilePublicModelDefinition(ctx *Context, def *ast.ModelDef) {
	constantIndex := e.compileModelDefinition(ctx, def)
	e.Assembly.PublicIndices[def.Name] = constantIndex
}

// compileFunctionDefinitionBase compiles fn's parameters and body into
// a fresh FunctionState, without registering it in the program — the
// caller decides whether it's a plain function (added as a constant,
// resolvable by name) or an instance method (added only to its model's
// function table).
func (e *Env) compileFunctionDefinitionBase(ctx *Context, fn *ast.FunctionDef) *FunctionState {
	fs := NewFunctionState()

	for _, param := range fn.Parameters {
		if param == "this" {
			fs.IsInstance = true
		}
		if _, ok := fs.defineLocal(param); !ok {
			e.Errors.Add(fn.Tok(), "parameter already exists")
		}
	}
	fs.ParameterCount = len(fn.Parameters)

	for _, stmt := range fn.Body {
		e.compileStatement(ctx, fs, stmt)
	}
	fs.emitReturn(fs.lastPosition())

	return fs
}

func functionFromState(fs *FunctionState) *program.Function {
	return &program.Function{
		ParameterCount:     fs.ParameterCount,
		LocalVariableCount: fs.LocalVariableCount,
		RescuePosition:     fs.RescuePosition,
		IsInstance:         fs.IsInstance,
		Instructions:       fs.Instructions,
		Positions:          fs.positions,
	}
}

// compileFunctionDefinition returns the constant-pool index of the
// compiled function.
func (e *Env) compileFunctionDefinition(ctx *Context, fn *ast.FunctionDef) int {
	// Defined before the body compiles so the function can call itself.
	localIndex, hasLocal := e.defineLocalByName(ctx, fn.Tok(), fn.Name)

	fs := e.compileFunctionDefinitionBase(ctx, fn)

	if fs.IsInstance {
		e.Errors.Add(fn.Tok(), "instance functions can only be defined inside an implement block")
		return 0
	}

	functionIndex := ctx.Program.AddFunction(functionFromState(fs))
	constantIndex := ctx.Program.AddConstant(object.Function{Index: functionIndex})

	if hasLocal {
		ctx.Program.LocalValues[localIndex] = constantIndex
	}
	if fn.Name == "main" {
		ctx.Program.EntryPoint = functionIndex + 1
	}

	return constantIndex
}

func (e *Env) compilePublicFunctionDefinition(ctx *Context, fn *ast.FunctionDef) {
	constantIndex := e.compileFunctionDefinition(ctx, fn)
	e.Assembly.PublicIndices[fn.Name] = constantIndex
}

func (e *Env) findModelIndexByLocalName(ctx *Context, tok ast.Node, name string) (int, bool) {
	localIndex, ok := e.Locals[name]
	if !ok {
		e.Errors.Add(tok.Tok(), "can not find model")
		return 0, false
	}
	value, ok := ctx.getLocalValue(localIndex)
	if !ok {
		e.Errors.Add(tok.Tok(), "is not a model")
		return 0, false
	}
	model, ok := value.(object.Model)
	if !ok {
		e.Errors.Add(tok.Tok(), "is not a model")
		return 0, false
	}
	return model.Index, true
}

func (e *Env) compileImplementDefinition(ctx *Context, def *ast.ImplementDef) {
	functions := make(map[string]int, len(def.Functions))

	for _, fn := range def.Functions {
		fs := e.compileFunctionDefinitionBase(ctx, fn)
		index := ctx.Program.AddFunction(functionFromState(fs))
		functions[fn.Name] = index
	}

	modelIndex, ok := e.findModelIndexByLocalName(ctx, def, def.ModelName)
	if !ok {
		return
	}
	model := ctx.Program.Models[modelIndex]
	for name, index := range functions {
		model.Functions[name] = index
	}
}

func (e *Env) compileApplyDefinition(ctx *Context, def *ast.ApplyDef) {
	functions := make(map[string]int)

	if sourceIndex, ok := e.findModelIndexByLocalName(ctx, def, def.Source); ok {
		source := ctx.Program.Models[sourceIndex]
		for name, index := range source.Functions {
			functions[name] = index
		}
	}

	if targetIndex, ok := e.findModelIndexByLocalName(ctx, def, def.Target); ok {
		target := ctx.Program.Models[targetIndex]
		for name, index := range functions {
			target.Functions[name] = index
		}
	}
}
