package vm_test

import (
	"testing"

	"github.com/piescript-lang/piescript/internal/compiler"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/vm"
)

// noIncludeLoader is a source.Loader for scripts that never `include`
// another file — every test in this package is self-contained, so any
// call into it is itself a test failure.
type noIncludeLoader struct{ t *testing.T }

func (l noIncludeLoader) LoadText(filename string) (string, error) {
	l.t.Fatalf("unexpected include of %q", filename)
	return "", nil
}

func (l noIncludeLoader) LoadBinary(filename string) ([]byte, error) {
	l.t.Fatalf("unexpected binary load of %q", filename)
	return nil, nil
}

// mustCompile compiles src under "test.luck" and fails the test on any
// compile error.
func mustCompile(t *testing.T, src string) *vm.VM {
	t.Helper()
	prog, err := compiler.CompileSource(src, "test.luck", noIncludeLoader{t})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return vm.New(prog)
}

// mustRun compiles and runs src's entry point, failing the test on any
// runtime error.
func mustRun(t *testing.T, src string) object.Object {
	t.Helper()
	v := mustCompile(t, src)
	result, err := v.Execute()
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return result
}
