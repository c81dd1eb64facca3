package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/compiler"
)

type failLoader struct{ t *testing.T }

func (l failLoader) LoadText(filename string) (string, error) {
	l.t.Fatalf("unexpected include of %q", filename)
	return "", nil
}

func (l failLoader) LoadBinary(filename string) ([]byte, error) {
	l.t.Fatalf("unexpected binary load of %q", filename)
	return nil, nil
}

func TestCompileSourceProducesEntryPoint(t *testing.T) {
	prog, err := compiler.CompileSource(`
function main()
	return 1 + 1
end
`, "test.luck", failLoader{t})
	require.NoError(t, err)
	require.NotZero(t, prog.EntryPoint)
	require.Equal(t, 1, len(prog.Functions))
}

func TestCompileWithoutMainHasNoEntryPoint(t *testing.T) {
	prog, err := compiler.CompileSource(`
function helper()
	return 1
end
`, "test.luck", failLoader{t})
	require.NoError(t, err)
	require.Equal(t, 0, prog.EntryPoint)
}

func TestImplementOnUndefinedModelIsDiagnostic(t *testing.T) {
	_, err := compiler.CompileSource(`
implement Ghost
	function m(this)
		return 1
	end
end
`, "test.luck", failLoader{t})
	require.Error(t, err)
	require.Contains(t, err.Error(), "can not find model")
}

func TestApplyCopiesMethodsBetweenModels(t *testing.T) {
	prog, err := compiler.CompileSource(`
model A x end

implement A
	function describe(this)
		return this.x
	end
end

model B x end

apply A to B
`, "test.luck", failLoader{t})
	require.NoError(t, err)
	require.Len(t, prog.Models, 2)

	// B is declared second, so it's the second model; apply should have
	// copied describe's function index onto it alongside A.
	target := prog.Models[1]
	_, ok := target.Functions["describe"]
	require.True(t, ok, "apply should copy describe onto B")
}

func TestSyntaxErrorSurfacesAsDiagnostic(t *testing.T) {
	_, err := compiler.CompileSource(`model end`, "test.luck", failLoader{t})
	require.Error(t, err)
}
