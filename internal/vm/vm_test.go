package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/nativeiface"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/vm"
)

func TestArithmetic(t *testing.T) {
	result := mustRun(t, `
function main()
	return 2 + 3 == 5
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestArithmeticPromotion(t *testing.T) {
	result := mustRun(t, `
function main()
	return 1 + 2.5
end
`)
	require.Equal(t, object.Float(3.5), result)
}

func TestStringConcatenation(t *testing.T) {
	result := mustRun(t, `
function main()
	return "count: " + 3
end
`)
	require.Equal(t, "count: 3", result.(*object.String).Value)
}

func TestDivideByZero(t *testing.T) {
	v := mustCompile(t, `
function main()
	return 1 / 0
end
`)
	_, err := v.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
}

func TestRecursiveFunction(t *testing.T) {
	result := mustRun(t, `
function fact(n)
	if n == 0
		return 1
	end
	return n * fact(n - 1)
end

function main()
	return fact(5) == 120
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestModelMethodApply(t *testing.T) {
	result := mustRun(t, `
model A x, y end

implement A
	function get_x(this)
		return this.x
	end
end

model B x, y end

apply A to B

function main()
	local b = B()
	b.x = 7
	return b.get_x()
end
`)
	require.Equal(t, object.Integer(7), result)
}

func TestMetaMethodOperatorDispatch(t *testing.T) {
	result := mustRun(t, `
model Point x, y end

implement Point
	function _add(this, other)
		local p = Point()
		p.x = this.x + other.x
		p.y = this.y + other.y
		return p
	end
end

function main()
	local a = Point()
	a.x = 1
	a.y = 2
	local b = Point()
	b.x = 10
	b.y = 20
	local c = a + b
	return c.x == 11 and c.y == 22
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestMissingMetaMethodErrors(t *testing.T) {
	v := mustCompile(t, `
model Point x, y end

function main()
	local a = Point()
	local b = Point()
	return a + b
end
`)
	_, err := v.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "meta method")
}

func TestForOverArray(t *testing.T) {
	result := mustRun(t, `
function main()
	local a = [1, 2, 3, 4]
	local s = 0
	for v in a
		s = s + v
	end
	return s == 10
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestForOverIntegerIsEmptyAtZero(t *testing.T) {
	result := mustRun(t, `
function main()
	local count = 0
	for i in 0
		count = count + 1
	end
	return count
end
`)
	require.Equal(t, object.Integer(0), result)
}

func TestForOverInstancePropertyNames(t *testing.T) {
	result := mustRun(t, `
model Pair a, b end

function main()
	local p = Pair()
	local names = [null, null]
	local i = 0
	for name in p
		names[i] = name
		i = i + 1
	end
	return names
end
`)
	arr, ok := result.(*object.Array)
	require.True(t, ok)
	require.Len(t, arr.Elements, 2)
	require.Equal(t, "a", arr.Elements[0].(*object.String).Value)
	require.Equal(t, "b", arr.Elements[1].(*object.String).Value)
}

func TestBreakExitsLoop(t *testing.T) {
	result := mustRun(t, `
function main()
	local s = 0
	for v in [1, 2, 3, 4, 5]
		if v == 3
			break
		end
		s = s + v
	end
	return s
end
`)
	require.Equal(t, object.Integer(3), result)
}

func TestRescueRecoversFromRuntimeError(t *testing.T) {
	result := mustRun(t, `
function bad()
	return 1 / 0
end

function safe()
	bad()
	rescue
	return 42
end

function main()
	return safe() == 42
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestRescueUncaughtPropagates(t *testing.T) {
	v := mustCompile(t, `
function main()
	return 1 / 0
end
`)
	_, err := v.Execute()
	require.Error(t, err)
}

func TestPrimitivePropertyAccess(t *testing.T) {
	result := mustRun(t, `
function main()
	return 42.string.length == 2 and 42.string.integer == 42 and "3".integer == 3 and "x".integer == null
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestArrayLength(t *testing.T) {
	result := mustRun(t, `
function main()
	return [1, 2, 3].length
end
`)
	require.Equal(t, object.Integer(3), result)
}

func TestIndexGetSet(t *testing.T) {
	result := mustRun(t, `
function main()
	local a = [1, 2, 3]
	a[1] = 99
	return a[1] == 99 and a[0] == 1
end
`)
	require.Equal(t, object.Boolean(true), result)
}

func TestRoundTripBinarySerialization(t *testing.T) {
	v := mustCompile(t, `
function fact(n)
	if n == 0
		return 1
	end
	return n * fact(n - 1)
end

function main()
	return fact(5)
end
`)
	direct, err := v.Execute()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.Program.Encode(&buf, false))

	loaded, err := program.Decode(&buf, false, func(string) {})
	require.NoError(t, err)

	reloaded := vm.New(loaded)
	result, err := reloaded.Execute()
	require.NoError(t, err)
	require.Equal(t, direct, result)
}

func TestProgramWithNoEntryPointRunsAsNoOp(t *testing.T) {
	v := mustCompile(t, `
function helper()
	return 1
end
`)
	result, err := v.Execute()
	require.NoError(t, err)
	require.Equal(t, object.NullValue, result)
}

func TestMissingGlobalsReportsHostDependencies(t *testing.T) {
	v := mustCompile(t, `
function main()
	return some_host_function()
end
`)
	missing := v.MissingGlobals()
	require.Equal(t, []string{"some_host_function"}, missing)

	_, err := v.Execute()
	require.Error(t, err)
}

// doubleNative is a minimal nativeiface.NativeFunction that
// returns its single argument doubled, exercising AddNativeFunction and
// the Call opcode's native dispatch path.
func doubleNative(host nativeiface.Host, args []object.Object) (object.Object, error) {
	n, ok := args[0].(object.Integer)
	if !ok {
		return nil, host.RaiseError("expected an integer")
	}
	return n * 2, nil
}

func TestNativeFunctionRegistration(t *testing.T) {
	v := mustCompile(t, `
function main()
	return double(21)
end
`)
	v.AddNativeFunction("double", doubleNative)

	result, err := v.Execute()
	require.NoError(t, err)
	require.Equal(t, object.Integer(42), result)
}

func TestCallFunctionFromNativeCallback(t *testing.T) {
	v := mustCompile(t, `
function triple(n)
	return n * 3
end

function main()
	return apply_triple(triple, 7)
end
`)
	v.AddNativeFunction("apply_triple", func(host nativeiface.Host, args []object.Object) (object.Object, error) {
		return host.CallFunction(args[0], args[1:])
	})

	result, err := v.Execute()
	require.NoError(t, err)
	require.Equal(t, object.Integer(21), result)
}
