// Package codegen holds the instruction buffer the parsers emit into.
package codegen

import (
	"fmt"

	"github.com/zurustar/mwscript/pkg/opcode"
)

// Label is the index of an emitted jump whose offset is filled in later.
type Label int

// Output accumulates the instructions of one script body.
type Output struct {
	code []opcode.OpCode
}

// New creates an empty buffer. Code is never nil, so a fresh buffer and a
// reset one are indistinguishable.
func New() *Output {
	return &Output{code: []opcode.OpCode{}}
}

// Emit appends an instruction.
func (o *Output) Emit(cmd opcode.Cmd, args ...any) {
	o.code = append(o.code, opcode.New(cmd, args...))
}

// EmitJump appends a forward jump with an unknown offset and returns its
// label for Patch.
func (o *Output) EmitJump(cmd opcode.Cmd) Label {
	o.Emit(cmd, 0)
	return Label(len(o.code) - 1)
}

// Patch points the jump at label to the next instruction to be emitted.
func (o *Output) Patch(label Label) {
	o.PatchTo(label, o.Len())
}

// PatchTo points the jump at label to the absolute index target.
func (o *Output) PatchTo(label Label, target int) {
	i := int(label)
	if i < 0 || i >= len(o.code) || !o.code[i].IsJump() {
		panic(fmt.Sprintf("codegen: label %d is not a jump", i))
	}
	o.code[i].Args[0] = target - i
}

// EmitJumpTo appends a jump to an already known absolute index.
func (o *Output) EmitJumpTo(cmd opcode.Cmd, target int) {
	o.Emit(cmd, target-o.Len())
}

// Len returns the number of emitted instructions, which is also the index
// of the next one.
func (o *Output) Len() int {
	return len(o.code)
}

// Code returns the emitted instructions.
func (o *Output) Code() []opcode.OpCode {
	return o.code
}

// Reset empties the buffer, keeping its storage.
func (o *Output) Reset() {
	o.code = o.code[:0]
}
