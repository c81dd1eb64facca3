package compiler

import (
	"fmt"
	"strings"

	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/depsolver"
	"github.com/piescript-lang/piescript/internal/diag"
	"github.com/piescript-lang/piescript/internal/lexer"
	"github.com/piescript-lang/piescript/internal/parser"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/source"
	"github.com/piescript-lang/piescript/internal/token"
)

// documentDeps adapts *ast.Document to depsolver.Document.
type documentDeps struct{ doc *ast.Document }

func (d documentDeps) DependencyFilename() string   { return d.doc.Filename }
func (d documentDeps) DependencyIncludes() []string { return d.doc.Dependencies }

// CompileDocument compiles one already-parsed document into ctx,
// returning the diagnostics raised while compiling it (empty if none).
func CompileDocument(ctx *Context, doc *ast.Document) diag.List {
	env := newEnv(doc.Filename, len(ctx.assemblyStates))

	for _, def := range doc.Definitions {
		env.compileDefinition(ctx, def)
	}

	ctx.assemblyStates[doc.Filename] = env.Assembly
	return env.Errors
}

// parseSource lexes and parses one source file, returning its document
// and any syntax diagnostics.
func parseSource(src, filename string) (*ast.Document, diag.List) {
	toks := lexer.New(src).Tokenize()
	return parser.Parse(toks, filename)
}

// CompileTo compiles src (and every file it transitively includes,
// fetched through loader) into ctx. Dependency solving follows the
// original's three-phase loop: parse whatever is known, solve what it
// depends on, fetch and parse anything unsolved, and repeat until
// nothing is left unsolved; then repeatedly compile whichever pending
// file currently has zero unloaded dependencies, draining the solver.
// A solver left non-empty after that loop means a dependency cycle,
// reported as one error naming every file still stuck.
func CompileTo(ctx *Context, src, filename string, loader source.Loader) error {
	documents := make(map[string]*ast.Document)
	solver := depsolver.New()

	doc, errs := parseSource(src, filename)
	if errs.HasErrors() {
		return errs
	}

	loaded := ctx.loadedFilenames()
	solver.Solve(documentDeps{doc}, loaded)
	documents[doc.Filename] = doc

	for {
		depFilename, ok := solver.UnsolvedFilename()
		if !ok {
			break
		}
		depSource, err := loader.LoadText(depFilename)
		if err != nil {
			return err
		}
		depDoc, errs := parseSource(depSource, depFilename)
		if errs.HasErrors() {
			return errs
		}
		solver.Solve(documentDeps{depDoc}, loaded)
		documents[depFilename] = depDoc
	}

	for {
		readyFilename, ok := solver.NextNoDependencyFilename()
		if !ok {
			break
		}
		readyDoc := documents[readyFilename]
		if errs := CompileDocument(ctx, readyDoc); errs.HasErrors() {
			return errs
		}
		solver.SetLoaded(readyFilename)
	}

	if !solver.IsEmpty() {
		cycle := solver.PotentialCycleFilenames()
		return diag.List{{
			Token:   token.Token{Position: token.NonePosition},
			Message: fmt.Sprintf("there may be a dependency cycle in these files [%s]", strings.Join(cycle, ", ")),
		}}
	}

	return nil
}

// CompileSource compiles src (named filename) and every file it
// transitively includes, fetched through loader, into a fresh Program.
func CompileSource(src, filename string, loader source.Loader) (*program.Program, error) {
	ctx := NewContext()
	if err := CompileTo(ctx, src, filename, loader); err != nil {
		return nil, err
	}
	return ctx.Program, nil
}

// CompileFile loads filename through loader and compiles it (and its
// transitive includes) into a fresh Program.
func CompileFile(filename string, loader source.Loader) (*program.Program, error) {
	src, err := loader.LoadText(filename)
	if err != nil {
		return nil, err
	}
	return CompileSource(src, filename, loader)
}
