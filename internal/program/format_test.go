package program_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/program"
)

func sampleProgram() *program.Program {
	p := program.New()
	p.EntryPoint = 1
	p.LocalVariableCount = 2
	p.LocalValues = map[int]int{0: 1}

	model := program.NewModel()
	model.AddProperty("x")
	model.AddProperty("y")
	p.AddModel(model)

	idx := p.AddConstant(&object.String{Value: "hello"})
	p.GlobalDependencies = append(p.GlobalDependencies, idx)

	fn := &program.Function{
		ParameterCount:     1,
		LocalVariableCount: 1,
		Instructions: []bytecode.Instruction{
			bytecode.NewInstruction(bytecode.PushConstant, 1),
			bytecode.NewInstruction(bytecode.Return, 0),
		},
	}
	p.AddFunction(fn)

	return p
}

func TestEncodeDecodeRoundTripUncompressed(t *testing.T) {
	p := sampleProgram()

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf, false))

	got, err := program.Decode(&buf, false, func(msg string) { t.Fatalf("unexpected warning: %s", msg) })
	require.NoError(t, err)

	require.Equal(t, p.EntryPoint, got.EntryPoint)
	require.Equal(t, p.LocalVariableCount, got.LocalVariableCount)
	require.Equal(t, p.LocalValues, got.LocalValues)
	require.Equal(t, p.GlobalDependencies, got.GlobalDependencies)
	require.Len(t, got.Models, 1)
	require.Equal(t, []string{"x", "y"}, got.Models[0].PropertyNames)
	require.Len(t, got.Functions, 1)
	require.Equal(t, p.Functions[0].Instructions, got.Functions[0].Instructions)
}

func TestEncodeDecodeRoundTripCompressed(t *testing.T) {
	p := sampleProgram()

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf, true))

	got, err := program.Decode(&buf, true, nil)
	require.NoError(t, err)
	require.Equal(t, p.EntryPoint, got.EntryPoint)
}

func TestDecodeWarnsOnHeaderMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{0xFF}, 16))
	buf.Write([]byte{0, 0, 0, 0})
	buf.Write(make([]byte, 7*4)) // empty body: seven zero u32 fields

	var warnings []string
	_, err := program.Decode(&buf, false, func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)
	require.Contains(t, warnings, "header does not match")
}

func TestDecodeTruncatedInputErrors(t *testing.T) {
	_, err := program.Decode(bytes.NewReader([]byte{1, 2, 3}), false, nil)
	require.Error(t, err)
}
