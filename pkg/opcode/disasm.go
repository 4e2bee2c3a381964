package opcode

import (
	"fmt"
	"strconv"
	"strings"
)

// String formats the instruction as "Cmd arg1, arg2".
func (op OpCode) String() string {
	if len(op.Args) == 0 {
		return string(op.Cmd)
	}
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = formatArg(op.Cmd, i, arg)
	}
	return string(op.Cmd) + " " + strings.Join(args, ", ")
}

func formatArg(cmd Cmd, index int, arg any) string {
	switch v := arg.(type) {
	case string:
		return strconv.Quote(v)
	case byte:
		return string(rune(v))
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, " ") + "]"
	case int:
		if index == 0 && (cmd == Jump || cmd == JumpIfFalse) {
			return fmt.Sprintf("%+d", v)
		}
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Disassemble renders code one instruction per line with its index.
// Jumps also show their absolute target.
func Disassemble(code []OpCode) string {
	var buf strings.Builder
	width := len(strconv.Itoa(len(code)))
	for i, op := range code {
		fmt.Fprintf(&buf, "%*d  %s", width, i, op)
		if op.IsJump() {
			fmt.Fprintf(&buf, "  ; -> %d", i+op.Offset())
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
