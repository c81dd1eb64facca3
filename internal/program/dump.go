package program

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"

	"github.com/piescript-lang/piescript/internal/bytecode"
)

// Dump renders p for the disassemble CLI command and for compiler/VM
// tests that need to eyeball a mismatch: the model and constant tables
// via kr/pretty (plain Go values, a generic pretty-printer already
// does a fine job), followed by a hand-written disassembly of every
// function's instruction stream, since usefully labeling a packed u64
// as "Operation add" needs domain knowledge no generic dumper has.
func Dump(p *Program) string {
	var b strings.Builder

	fmt.Fprintf(&b, "entry point: %d\n", p.EntryPoint)
	fmt.Fprintf(&b, "local variable count: %d\n", p.LocalVariableCount)

	fmt.Fprintln(&b, "models:")
	for i, model := range p.Models {
		fmt.Fprintf(&b, "  [%d] %# v\n", i, pretty.Formatter(model))
	}

	fmt.Fprintln(&b, "constants:")
	for i, c := range p.Constants {
		fmt.Fprintf(&b, "  [%d] %# v\n", i, pretty.Formatter(c))
	}

	fmt.Fprintln(&b, "functions:")
	for i, fn := range p.Functions {
		fmt.Fprintf(&b, "  function %d (params=%d locals=%d instance=%v):\n",
			i, fn.ParameterCount, fn.LocalVariableCount, fn.IsInstance)
		for addr, instr := range fn.Instructions {
			fmt.Fprintf(&b, "    %4d  %s\n", addr, disassemble(instr))
		}
	}

	return b.String()
}

func disassemble(instr bytecode.Instruction) string {
	op := instr.Opcode()
	operand := instr.Operand()

	if op == bytecode.Operation {
		return fmt.Sprintf("%-12s %s", op, operationName(operand))
	}
	return fmt.Sprintf("%-12s %d", op, operand)
}

func operationName(operand int64) string {
	switch operand {
	case int64(bytecode.OperationAdd):
		return "add"
	case int64(bytecode.OperationSub):
		return "sub"
	case int64(bytecode.OperationMul):
		return "mul"
	case int64(bytecode.OperationDiv):
		return "div"
	case int64(bytecode.OperationMod):
		return "mod"
	case int64(bytecode.OperationEqual):
		return "eq"
	case int64(bytecode.OperationGreater):
		return "gt"
	case int64(bytecode.OperationLess):
		return "lt"
	case int64(bytecode.OperationGreaterEqual):
		return "gte"
	case int64(bytecode.OperationLessEqual):
		return "lte"
	case int64(bytecode.OperationAnd):
		return "and"
	case int64(bytecode.OperationOr):
		return "or"
	default:
		return fmt.Sprintf("?(%d)", operand)
	}
}
