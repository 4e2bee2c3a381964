package extensions

import "github.com/zurustar/mwscript/pkg/compiler/locals"

type builtin struct {
	name     string
	kind     Kind
	returns  locals.Type
	args     string
	explicit bool
}

// builtins is the default instruction and function set.
var builtins = []builtin{
	// object state
	{"Enable", Instruction, locals.None, "", true},
	{"Disable", Instruction, locals.None, "", true},
	{"GetDisabled", Function, locals.Long, "", true},
	{"Activate", Instruction, locals.None, "", true},
	{"OnActivate", Function, locals.Short, "", true},
	{"GetDistance", Function, locals.Float, "c", true},

	// positioning
	{"Position", Instruction, locals.None, "ffff", true},
	{"SetPos", Instruction, locals.None, "cf", true},
	{"GetPos", Function, locals.Float, "c", true},
	{"Move", Instruction, locals.None, "cf", true},
	{"Rotate", Instruction, locals.None, "cf", true},
	{"GetPCCell", Function, locals.Long, "c", false},

	// inventory
	{"AddItem", Instruction, locals.None, "cl", true},
	{"RemoveItem", Instruction, locals.None, "cl", true},
	{"GetItemCount", Function, locals.Long, "c", true},

	// sound and dialogue
	{"PlaySound", Instruction, locals.None, "c", false},
	{"StopSound", Instruction, locals.None, "c", true},
	{"Say", Instruction, locals.None, "SS", true},
	{"Journal", Instruction, locals.None, "cl", false},
	{"GetJournalIndex", Function, locals.Long, "c", false},

	// scripts
	{"StartScript", Instruction, locals.None, "c", false},
	{"StopScript", Instruction, locals.None, "c", false},
	{"ScriptRunning", Function, locals.Short, "c", false},

	// misc
	{"GetSecondsPassed", Function, locals.Float, "", false},
	{"Random", Function, locals.Long, "l", false},
	{"MenuMode", Function, locals.Short, "", false},
	{"GetButtonPressed", Function, locals.Short, "", false},
	{"Fall", Instruction, locals.None, "/l", true},
}

// Default returns a registry populated with the built-in set.
func Default() *Registry {
	r := NewRegistry()
	for _, b := range builtins {
		var err error
		if b.kind == Function {
			err = r.RegisterFunction(b.name, b.returns, b.args, b.explicit)
		} else {
			err = r.RegisterInstruction(b.name, b.args, b.explicit)
		}
		if err != nil {
			panic(err)
		}
	}
	return r
}
