package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/lexer"
	"github.com/piescript-lang/piescript/internal/parser"
)

func parse(t *testing.T, src string) *ast.Document {
	t.Helper()
	tokens := lexer.New(src).Tokenize()
	doc, errs := parser.Parse(tokens, "test.luck")
	require.Empty(t, errs, "unexpected parse errors: %v", errs)
	return doc
}

func TestParseModelDefinition(t *testing.T) {
	doc := parse(t, "model Point x, y end")
	require.Len(t, doc.Definitions, 1)
	model, ok := doc.Definitions[0].(*ast.ModelDef)
	require.True(t, ok)
	require.Equal(t, "Point", model.Name)
	require.Equal(t, []string{"x", "y"}, model.Properties)
	require.False(t, model.Public)
}

func TestParsePublicFunctionDefinition(t *testing.T) {
	doc := parse(t, `
public function add(a, b)
	return a + b
end
`)
	fn, ok := doc.Definitions[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.True(t, fn.Public)
	require.Equal(t, []string{"a", "b"}, fn.Parameters)
	require.Len(t, fn.Body, 1)
}

func TestParseInstanceMethodHasThisAsFirstParameter(t *testing.T) {
	doc := parse(t, `
implement Point
	function get_x(this)
		return this.x
	end
end
`)
	impl, ok := doc.Definitions[0].(*ast.ImplementDef)
	require.True(t, ok)
	require.Equal(t, "Point", impl.ModelName)
	require.Len(t, impl.Functions, 1)
	require.Equal(t, []string{"this"}, impl.Functions[0].Parameters)
}

func TestParseApplyDefinition(t *testing.T) {
	doc := parse(t, "apply A to B")
	apply, ok := doc.Definitions[0].(*ast.ApplyDef)
	require.True(t, ok)
	require.Equal(t, "A", apply.Source)
	require.Equal(t, "B", apply.Target)
}

func TestParseIncludeDefinitionCollectsDependency(t *testing.T) {
	doc := parse(t, `include "util.luck" as helper`)
	require.Equal(t, []string{"util.luck"}, doc.Dependencies)
	include, ok := doc.Definitions[0].(*ast.IncludeDef)
	require.True(t, ok)
	require.Equal(t, "util.luck", include.Filename)
	require.Equal(t, []ast.IncludeAlias{{Alias: "helper", PublicName: "helper"}}, include.Aliases)
}

func TestBinaryOperatorPrecedence(t *testing.T) {
	doc := parse(t, `
function main()
	return 1 + 2 * 3
end
`)
	fn := doc.Definitions[0].(*ast.FunctionDef)
	ret := fn.Body[0].(*ast.ReturnStatement)
	infix := ret.Value.(*ast.Infix)

	require.Equal(t, "+", infix.Operator)
	require.Equal(t, int64(1), infix.Left.(*ast.IntegerLiteral).Value)

	right := infix.Right.(*ast.Infix)
	require.Equal(t, "*", right.Operator)
	require.Equal(t, int64(2), right.Left.(*ast.IntegerLiteral).Value)
	require.Equal(t, int64(3), right.Right.(*ast.IntegerLiteral).Value)
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	doc := parse(t, `
function main()
	a = b = 1
end
`)
	fn := doc.Definitions[0].(*ast.FunctionDef)
	stmt := fn.Body[0].(*ast.ExpressionStatement)
	outer := stmt.Expression.(*ast.Infix)
	require.Equal(t, "=", outer.Operator)
	require.Equal(t, "a", outer.Left.(*ast.Identifier).Name)

	inner := outer.Right.(*ast.Infix)
	require.Equal(t, "=", inner.Operator)
	require.Equal(t, "b", inner.Left.(*ast.Identifier).Name)
	require.Equal(t, int64(1), inner.Right.(*ast.IntegerLiteral).Value)
}

func TestParseForStatement(t *testing.T) {
	doc := parse(t, `
function main()
	for v in [1, 2, 3]
		v
	end
end
`)
	fn := doc.Definitions[0].(*ast.FunctionDef)
	require.IsType(t, &ast.ForStatement{}, fn.Body[0])
}

func TestMalformedDefinitionProducesDiagnostic(t *testing.T) {
	tokens := lexer.New("model end").Tokenize()
	_, errs := parser.Parse(tokens, "test.luck")
	require.NotEmpty(t, errs)
}
