package vm

import (
	"math"

	"github.com/piescript-lang/piescript/internal/bytecode"
	"github.com/piescript-lang/piescript/internal/object"
	"github.com/piescript-lang/piescript/internal/token"
)

// metaMethods maps an Operation operand to the method name a model
// implements to participate in that operator when it's the left
// operand — the same ten entries, in the same order, as the operand
// constants in package bytecode.
var metaMethods = [...]string{
	"_add", "_sub", "_mul", "_div", "_mod",
	"_eq", "_gt", "_lt", "_gte", "_lte",
}

// binaryOperation implements the Operation opcode: and/or are
// evaluated directly (both operands are already on the stack, so
// there is no short-circuiting to preserve), an Instance on the left
// dispatches to its model's meta-method, and every other left operand
// is handled by its own per-type table. A meta-method call pushes a
// new frame and returns immediately without pushing a result itself —
// the run loop continues into the callee and its eventual Return
// leaves the result on this same stack.
func (v *VM) binaryOperation(left, right object.Object, op bytecode.Operation) error {
	if int(op)&256 != 0 {
		switch op {
		case bytecode.OperationAnd:
			v.pushStack(object.Boolean(left.Truthy() && right.Truthy()))
		case bytecode.OperationOr:
			v.pushStack(object.Boolean(left.Truthy() || right.Truthy()))
		default:
			return newRuntimeError(v.lastPosition, "unknown operation")
		}
		return nil
	}

	if instance, ok := left.(*object.Instance); ok {
		return v.metaMethodOperation(instance, right, op)
	}

	result, err := v.primitiveOperation(left, right, op)
	if err != nil {
		return err
	}
	v.pushStack(result)
	return nil
}

func (v *VM) metaMethodOperation(instance *object.Instance, right object.Object, op bytecode.Operation) error {
	if int(op) < 0 || int(op) >= len(metaMethods) {
		return newRuntimeError(v.lastPosition, "unknown operation")
	}
	model := v.Program.Models[instance.ModelIndex]
	methodIndex, ok := model.Functions[metaMethods[op]]
	if !ok {
		return newRuntimeError(v.lastPosition, "meta method %s does not exist", metaMethods[op])
	}
	v.pushFrame(v.Program.Functions[methodIndex], []object.Object{instance, right})
	return nil
}

func (v *VM) primitiveOperation(left, right object.Object, op bytecode.Operation) (object.Object, error) {
	switch l := left.(type) {
	case object.Integer:
		return integerOperation(v.lastPosition, l, right, op)
	case object.Float:
		return floatOperation(v.lastPosition, l, right, op)
	case *object.String:
		return stringOperation(v.lastPosition, l.Value, right, op)
	case object.Null:
		if op == bytecode.OperationEqual {
			_, isNull := right.(object.Null)
			return object.Boolean(isNull), nil
		}
		return nil, newRuntimeError(v.lastPosition, "null can not do this kind of operation")
	default:
		return nil, newRuntimeError(v.lastPosition, "object of type %s can not do this kind of operation", left.Type())
	}
}

func integerOperation(pos token.Position, left object.Integer, right object.Object, op bytecode.Operation) (object.Object, error) {
	if r, ok := right.(object.Float); ok {
		return floatOperation(pos, object.Float(left), r, op)
	}

	switch op {
	case bytecode.OperationAdd:
		switch r := right.(type) {
		case object.Integer:
			return left + r, nil
		case *object.String:
			return object.NewString(left.String() + r.Value), nil
		}
	case bytecode.OperationSub:
		if r, ok := right.(object.Integer); ok {
			return left - r, nil
		}
	case bytecode.OperationMul:
		if r, ok := right.(object.Integer); ok {
			return left * r, nil
		}
	case bytecode.OperationDiv:
		if r, ok := right.(object.Integer); ok {
			if r == 0 {
				return nil, newRuntimeError(pos, "divide by zero")
			}
			return left / r, nil
		}
	case bytecode.OperationMod:
		if r, ok := right.(object.Integer); ok {
			if r == 0 {
				return nil, newRuntimeError(pos, "divide by zero")
			}
			return left % r, nil
		}
	case bytecode.OperationEqual:
		if r, ok := right.(object.Integer); ok {
			return object.Boolean(left == r), nil
		}
		return object.Boolean(false), nil
	case bytecode.OperationGreater:
		if r, ok := right.(object.Integer); ok {
			return object.Boolean(left > r), nil
		}
	case bytecode.OperationLess:
		if r, ok := right.(object.Integer); ok {
			return object.Boolean(left < r), nil
		}
	case bytecode.OperationGreaterEqual:
		if r, ok := right.(object.Integer); ok {
			return object.Boolean(left >= r), nil
		}
	case bytecode.OperationLessEqual:
		if r, ok := right.(object.Integer); ok {
			return object.Boolean(left <= r), nil
		}
	}

	return nil, newRuntimeError(pos, "can not %s integer with %s", operationVerb(op), right.Type())
}

func floatOperation(pos token.Position, left object.Float, right object.Object, op bytecode.Operation) (object.Object, error) {
	asFloat, isNumeric := numericOperand(right)

	switch op {
	case bytecode.OperationAdd:
		if isNumeric {
			return left + asFloat, nil
		}
		if r, ok := right.(*object.String); ok {
			return object.NewString(left.String() + r.Value), nil
		}
	case bytecode.OperationSub:
		if isNumeric {
			return left - asFloat, nil
		}
	case bytecode.OperationMul:
		if isNumeric {
			return left * asFloat, nil
		}
	case bytecode.OperationDiv:
		if isNumeric {
			if asFloat == 0 {
				return nil, newRuntimeError(pos, "divide by zero")
			}
			return left / asFloat, nil
		}
	case bytecode.OperationMod:
		if isNumeric {
			if asFloat == 0 {
				return nil, newRuntimeError(pos, "divide by zero")
			}
			return object.Float(math.Mod(float64(left), float64(asFloat))), nil
		}
	case bytecode.OperationEqual:
		if isNumeric {
			return object.Boolean(left == asFloat), nil
		}
		return object.Boolean(false), nil
	case bytecode.OperationGreater:
		if isNumeric {
			return object.Boolean(left > asFloat), nil
		}
	case bytecode.OperationLess:
		if isNumeric {
			return object.Boolean(left < asFloat), nil
		}
	case bytecode.OperationGreaterEqual:
		if isNumeric {
			return object.Boolean(left >= asFloat), nil
		}
	case bytecode.OperationLessEqual:
		if isNumeric {
			return object.Boolean(left <= asFloat), nil
		}
	}

	return nil, newRuntimeError(pos, "can not %s float with %s", operationVerb(op), right.Type())
}

func numericOperand(obj object.Object) (object.Float, bool) {
	switch v := obj.(type) {
	case object.Float:
		return v, true
	case object.Integer:
		return object.Float(v), true
	default:
		return 0, false
	}
}

// stringOperation only supports `+`: every other primitive stringifies
// onto the left string, matching String's role as text concatenation
// rather than a general numeric type.
func stringOperation(pos token.Position, left string, right object.Object, op bytecode.Operation) (object.Object, error) {
	if op != bytecode.OperationAdd {
		return nil, newRuntimeError(pos, "can not %s string with %s", operationVerb(op), right.Type())
	}

	switch right.(type) {
	case *object.String, object.Integer, object.Float, object.Boolean, object.Null:
		return object.NewString(left + right.String()), nil
	default:
		return nil, newRuntimeError(pos, "can not add string with %s", right.Type())
	}
}

func negativeOperation(pos token.Position, target object.Object) (object.Object, error) {
	switch v := target.(type) {
	case object.Integer:
		return -v, nil
	case object.Float:
		return -v, nil
	default:
		return nil, newRuntimeError(pos, "object of type %s can not do minus operation", target.Type())
	}
}

func operationVerb(op bytecode.Operation) string {
	switch op {
	case bytecode.OperationAdd:
		return "add"
	case bytecode.OperationSub:
		return "sub"
	case bytecode.OperationMul:
		return "mul"
	case bytecode.OperationDiv:
		return "div"
	case bytecode.OperationMod:
		return "mod"
	default:
		return "compare"
	}
}
