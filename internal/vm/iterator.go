package vm

import "github.com/piescript-lang/piescript/internal/object"

// forNext implements the ForNext opcode: enumerableSlot holds the
// value being iterated, enumerableSlot+1 an Integer counter. It pushes
// the next element (if any) followed by a boolean "the loop should
// exit now" flag — JumpIf consumes that flag immediately after, and
// LocalSet/Pop consume the element only when the loop continues.
// Integer counts up from 0, Array yields elements in order, and
// Instance yields its model's property names in declaration order;
// any other enumerable ends the loop on its first iteration.
func (v *VM) forNext(frame *Frame, enumerableSlot int) error {
	iteratorSlot := enumerableSlot + 1
	enumerable := v.localGet(frame, enumerableSlot)

	iterator, ok := v.localGet(frame, iteratorSlot).(object.Integer)
	if !ok {
		iterator = 0
	}

	done := true
	switch e := enumerable.(type) {
	case object.Integer:
		if iterator < e {
			v.pushStack(iterator)
			done = false
		}
	case *object.Array:
		if idx := int(iterator); idx < len(e.Elements) {
			v.pushStack(e.Elements[idx])
			done = false
		}
	case *object.Instance:
		model := v.Program.Models[e.ModelIndex]
		if idx := int(iterator); idx < len(model.PropertyNames) {
			v.pushStack(object.NewString(model.PropertyNames[idx]))
			done = false
		}
	}

	v.pushStack(object.Boolean(done))
	return nil
}

// iterate implements the Iterate opcode: bump the loop's counter slot
// at the bottom of its body, before the Jump back to ForNext.
func (v *VM) iterate(frame *Frame, iteratorSlot int) {
	if counter, ok := v.localGet(frame, iteratorSlot).(object.Integer); ok {
		v.localSet(frame, iteratorSlot, counter+1)
	}
}
