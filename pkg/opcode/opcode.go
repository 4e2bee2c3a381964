// Package opcode defines the instruction set emitted by the script compiler.
// The compiler generates OpCode sequences; executing them is the job of an
// external interpreter.
//
// The instruction set is a stack machine: operands are pushed, operators pop
// their inputs and push the result, stores pop the value to store.
package opcode

// Cmd represents an OpCode command type.
type Cmd string

// Variable type tags used in instruction arguments. They match the
// declaration type letters of the local variable table.
const (
	TypeShort byte = 's'
	TypeLong  byte = 'l'
	TypeFloat byte = 'f'
)

const (
	// PushInt pushes an integer literal.
	// Args: [value int32]
	PushInt Cmd = "PushInt"

	// PushFloat pushes a float literal.
	// Args: [value float32]
	PushFloat Cmd = "PushFloat"

	// PushString pushes a string or object id argument.
	// Args: [value string]
	PushString Cmd = "PushString"

	// LoadLocal pushes a local variable of the running script.
	// Args: [type byte, slot int]
	LoadLocal Cmd = "LoadLocal"

	// StoreLocal pops a value into a local variable.
	// Args: [type byte, slot int]
	StoreLocal Cmd = "StoreLocal"

	// LoadGlobal pushes a global variable.
	// Args: [name string, type byte]
	LoadGlobal Cmd = "LoadGlobal"

	// StoreGlobal pops a value into a global variable.
	// Args: [name string, type byte]
	StoreGlobal Cmd = "StoreGlobal"

	// LoadMember pushes a local variable of another script (id.member).
	// Args: [id string, member string, type byte]
	LoadMember Cmd = "LoadMember"

	// StoreMember pops a value into a local variable of another script.
	// Args: [id string, member string, type byte]
	StoreMember Cmd = "StoreMember"

	// BinaryOp pops two operands and pushes the result (+, -, *, /, ==, !=, <, <=, >, >=).
	// Args: [operator string, type byte]
	// For arithmetic the type is the result type; for comparisons it is the
	// common operand type and the result is a long.
	BinaryOp Cmd = "BinaryOp"

	// UnaryOp pops one operand and pushes the result (-).
	// Args: [operator string, resultType byte]
	UnaryOp Cmd = "UnaryOp"

	// Jump continues execution at a relative offset from this instruction.
	// Args: [offset int]
	Jump Cmd = "Jump"

	// JumpIfFalse pops a value and jumps by a relative offset when it is zero.
	// Args: [offset int]
	JumpIfFalse Cmd = "JumpIfFalse"

	// Call invokes an instruction extension. Arguments are on the stack.
	// ref is the explicit reference id, or "" for the running object.
	// Args: [name string, argc int, ref string]
	Call Cmd = "Call"

	// CallFunction invokes a function extension and pushes its result.
	// Args: [name string, argc int, ref string]
	CallFunction Cmd = "CallFunction"

	// Pop discards the top of the stack.
	// Args: []
	Pop Cmd = "Pop"

	// MessageBox shows a message. The format arguments are on the stack.
	// Args: [format string, argc int, buttons []string]
	MessageBox Cmd = "MessageBox"

	// Return stops execution of the script for this frame.
	// Args: []
	Return Cmd = "Return"
)

// OpCode represents a single instruction.
// It consists of a command type (Cmd) and a slice of arguments (Args)
// whose layout is documented on each Cmd.
type OpCode struct {
	Cmd  Cmd
	Args []any
}

// New creates an OpCode.
func New(cmd Cmd, args ...any) OpCode {
	return OpCode{Cmd: cmd, Args: args}
}

// IsJump reports whether the instruction carries a relative jump offset.
func (op OpCode) IsJump() bool {
	return op.Cmd == Jump || op.Cmd == JumpIfFalse
}

// Offset returns the jump offset of a Jump or JumpIfFalse instruction.
func (op OpCode) Offset() int {
	if !op.IsJump() || len(op.Args) == 0 {
		return 0
	}
	offset, _ := op.Args[0].(int)
	return offset
}

// Clone returns a copy of the code that shares no argument slices with it.
func Clone(code []OpCode) []OpCode {
	out := make([]OpCode, len(code))
	for i, op := range code {
		out[i] = OpCode{Cmd: op.Cmd, Args: append([]any(nil), op.Args...)}
	}
	return out
}
