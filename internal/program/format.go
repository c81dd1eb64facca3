// Binary artifact format for .lucky files.
//
// A .lucky file is the serialized form of a Program, written by
// Program.Encode and read back by Decode. The layout, transcribed
// directly from the original compiler's Program::serialize /
// Program::deserialize so a .lucky file produced by either
// implementation decodes identically:
//
//	[Header, always uncompressed, 20 bytes]
//	  Magic (16 bytes): the ASCII bytes "PieScript" zero-extended to a
//	    little-endian 128-bit integer (matches Program.HEADER).
//	  Version (3 bytes): Major, Minor, Patch.
//	  Reserved (1 byte): always 0.
//
//	[Body, gzip-compressed iff Encode was called with compress=true]
//	  Models:        u32 count, then each Model:
//	                   u32 property count, then each property as a
//	                     length-prefixed UTF-8 string;
//	                   u32 function count, then each (name, index) pair
//	                     as a length-prefixed string followed by a u32.
//	  Functions:     u32 count, then each Function:
//	                   u32 ParameterCount, u32 LocalVariableCount,
//	                   u32 RescuePosition, u8 IsInstance (0/1),
//	                   u32 instruction count, then each instruction as
//	                   a little-endian u64 (see package bytecode).
//	  Constants:     u32 total count (including the 3 default slots,
//	                   which are NEVER written — a reader always starts
//	                   its own pool with Null/true/false and appends
//	                   starting at index 3); each non-default constant
//	                   is a type tag byte followed by its payload:
//	                     0 Integer: i64
//	                     1 Float:   f64
//	                     2 String:  length-prefixed UTF-8
//	                     3 Model:   u32 model index
//	                     4 Function: u32 function index
//	  GlobalDependencies: u32 count, then each as a u32 constant index.
//	  LocalVariableCount: u32.
//	  LocalValues:   u32 count, then each (slot, constant index) pair
//	                   of u32s.
//	  EntryPoint:    u32.
//
// file_info/debug_info from the original format are source-level
// metadata (original filenames, line tables) this module never
// produces and a reader never needs, so this layout omits them
// entirely rather than writing an always-empty placeholder. Each
// Function's Positions table is not written either, so a decoded
// Function comes back with empty Positions; every other field survives
// a round trip through Encode/Decode.
package program

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
)

// header is the ASCII bytes of "PieScript", held as the low 9 bytes of
// a 128-bit little-endian integer exactly as the original's u128
// constant 0x747069726353656950 packs it (the string reversed into
// hex, one byte per pair, since x86/LE integers store the low-order
// byte first).
var header = [16]byte{'P', 'i', 'e', 'S', 'c', 'r', 'i', 'p', 't'}

// Version is the artifact format version stamped into every .lucky
// file and checked (as a warning only, never a hard failure) on load.
type Version struct {
	Major, Minor, Patch byte
}

// CurrentVersion is embedded by Encode and compared against by Decode.
var CurrentVersion = Version{Major: 0, Minor: 4, Patch: 0}

const (
	objectTypeInteger byte = iota
	objectTypeFloat
	objectTypeString
	objectTypeModel
	objectTypeFunction
)

// Encode writes p to w in the .lucky binary format, gzip-compressing
// the body when compress is true.
func (p *Program) Encode(w io.Writer, compress bool) error {
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := w.Write([]byte{CurrentVersion.Major, CurrentVersion.Minor, CurrentVersion.Patch, 0}); err != nil {
		return errors.Wrap(err, "write version")
	}

	var bodyWriter io.Writer = w
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(w)
		bodyWriter = gz
	}

	if err := p.encodeBody(bodyWriter); err != nil {
		return errors.Wrap(err, "encode body")
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "close gzip writer")
		}
	}
	return nil
}

func (p *Program) encodeBody(w io.Writer) error {
	if err := writeU32(w, uint32(len(p.Models))); err != nil {
		return err
	}
	for _, model := range p.Models {
		if err := encodeModel(w, model); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.Functions))); err != nil {
		return err
	}
	for _, fn := range p.Functions {
		if err := encodeFunction(w, fn); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.Constants))); err != nil {
		return err
	}
	for i := len(defaultConstants()); i < len(p.Constants); i++ {
		if err := encodeConstant(w, p.Constants[i]); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.GlobalDependencies))); err != nil {
		return err
	}
	for _, idx := range p.GlobalDependencies {
		if err := writeU32(w, uint32(idx)); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(p.LocalVariableCount)); err != nil {
		return err
	}

	if err := writeU32(w, uint32(len(p.LocalValues))); err != nil {
		return err
	}
	for slot, constIdx := range p.LocalValues {
		if err := writeU32(w, uint32(slot)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(constIdx)); err != nil {
			return err
		}
	}

	return writeU32(w, uint32(p.EntryPoint))
}

func defaultConstants() []object.Object {
	return []object.Object{object.NullValue, object.Boolean(true), object.Boolean(false)}
}

func encodeModel(w io.Writer, model *Model) error {
	if err := writeU32(w, uint32(len(model.PropertyNames))); err != nil {
		return err
	}
	for _, name := range model.PropertyNames {
		if err := writeString(w, name); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(model.Functions))); err != nil {
		return err
	}
	for name, idx := range model.Functions {
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(idx)); err != nil {
			return err
		}
	}
	return nil
}

func encodeFunction(w io.Writer, fn *Function) error {
	if err := writeU32(w, uint32(fn.ParameterCount)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(fn.LocalVariableCount)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(fn.RescuePosition)); err != nil {
		return err
	}
	var isInstance byte
	if fn.IsInstance {
		isInstance = 1
	}
	if _, err := w.Write([]byte{isInstance}); err != nil {
		return err
	}

	if err := writeU32(w, uint32(len(fn.Instructions))); err != nil {
		return err
	}
	for _, instr := range fn.Instructions {
		if err := binary.Write(w, binary.LittleEndian, uint64(instr)); err != nil {
			return err
		}
	}
	return nil
}

func encodeConstant(w io.Writer, value object.Object) error {
	switch v := value.(type) {
	case object.Integer:
		if _, err := w.Write([]byte{objectTypeInteger}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, int64(v))
	case object.Float:
		if _, err := w.Write([]byte{objectTypeFloat}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, float64(v))
	case *object.String:
		if _, err := w.Write([]byte{objectTypeString}); err != nil {
			return err
		}
		return writeString(w, v.Value)
	case object.Model:
		if _, err := w.Write([]byte{objectTypeModel}); err != nil {
			return err
		}
		return writeU32(w, uint32(v.Index))
	case object.Function:
		if _, err := w.Write([]byte{objectTypeFunction}); err != nil {
			return err
		}
		return writeU32(w, uint32(v.Index))
	default:
		return fmt.Errorf("program: constant of type %T cannot be serialized", value)
	}
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Decode reads a .lucky artifact from r. A header or version mismatch
// is reported through warn (if non-nil) rather than failing the read,
// matching the original loader's behavior of warning and continuing —
// an older or newer compiler's output is still usable bytecode.
func Decode(r io.Reader, compressed bool, warn func(string)) (*Program, error) {
	if warn == nil {
		warn = func(string) {}
	}

	var gotHeader [16]byte
	if _, err := io.ReadFull(r, gotHeader[:]); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if gotHeader != header {
		warn("header does not match")
	}

	var versionBytes [4]byte
	if _, err := io.ReadFull(r, versionBytes[:]); err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if versionBytes[0] != CurrentVersion.Major {
		warn("major version does not match")
	}
	if versionBytes[1] != CurrentVersion.Minor {
		warn("minor version does not match")
	}
	if versionBytes[2] != CurrentVersion.Patch {
		warn("patch version does not match")
	}
	if versionBytes[3] != 0 {
		warn("header end does not match")
	}

	var bodyReader io.Reader = r
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		bodyReader = gz
	}

	return decodeBody(bodyReader)
}

func decodeBody(r io.Reader) (*Program, error) {
	p := New()
	p.Models = nil
	p.Functions = nil

	modelCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read model count")
	}
	for i := uint32(0); i < modelCount; i++ {
		model, err := decodeModel(r)
		if err != nil {
			return nil, errors.Wrapf(err, "decode model %d", i)
		}
		p.Models = append(p.Models, model)
	}

	functionCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read function count")
	}
	for i := uint32(0); i < functionCount; i++ {
		fn, err := decodeFunction(r)
		if err != nil {
			return nil, errors.Wrapf(err, "decode function %d", i)
		}
		p.Functions = append(p.Functions, fn)
	}

	constantCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read constant count")
	}
	for i := uint32(len(defaultConstants())); i < constantCount; i++ {
		value, err := decodeConstant(r)
		if err != nil {
			return nil, errors.Wrapf(err, "decode constant %d", i)
		}
		p.Constants = append(p.Constants, value)
	}

	depCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read global dependency count")
	}
	for i := uint32(0); i < depCount; i++ {
		idx, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "read global dependency")
		}
		p.GlobalDependencies = append(p.GlobalDependencies, int(idx))
	}

	localCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read local variable count")
	}
	p.LocalVariableCount = int(localCount)

	localValueCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read local value count")
	}
	for i := uint32(0); i < localValueCount; i++ {
		slot, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "read local value slot")
		}
		constIdx, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "read local value constant index")
		}
		p.LocalValues[int(slot)] = int(constIdx)
	}

	entryPoint, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read entry point")
	}
	p.EntryPoint = int(entryPoint)

	return p, nil
}

func decodeModel(r io.Reader) (*Model, error) {
	model := NewModel()

	propertyCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < propertyCount; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		model.AddProperty(name)
	}

	functionCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < functionCount; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		idx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		model.Functions[name] = int(idx)
	}

	return model, nil
}

func decodeFunction(r io.Reader) (*Function, error) {
	paramCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	localCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	rescuePos, err := readU32(r)
	if err != nil {
		return nil, err
	}
	var isInstanceByte [1]byte
	if _, err := io.ReadFull(r, isInstanceByte[:]); err != nil {
		return nil, err
	}

	instrCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	instructions := make([]bytecode.Instruction, instrCount)
	for i := range instructions {
		var raw uint64
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, err
		}
		instructions[i] = bytecode.Instruction(raw)
	}

	return &Function{
		ParameterCount:     int(paramCount),
		LocalVariableCount: int(localCount),
		RescuePosition:     int(rescuePos),
		IsInstance:         isInstanceByte[0] == 1,
		Instructions:       instructions,
	}, nil
}

func decodeConstant(r io.Reader) (object.Object, error) {
	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		return nil, err
	}

	switch typeByte[0] {
	case objectTypeInteger:
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		return object.Integer(v), nil
	case objectTypeFloat:
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		return object.Float(v), nil
	case objectTypeString:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return object.NewString(s), nil
	case objectTypeModel:
		idx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		return object.Model{Index: int(idx)}, nil
	case objectTypeFunction:
		idx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		return object.Function{Index: int(idx)}, nil
	default:
		return nil, fmt.Errorf("program: unknown constant type tag %d", typeByte[0])
	}
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// headerAsInt renders the magic bytes as the big.Int the original
// u128 constant represents. Nothing in the module calls it.
func headerAsInt() *big.Int {
	return new(big.Int).SetBytes(reverse(header[:]))
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
