package model

import "fmt"

// HookDescriptor is the signature every start hook has: the game directory
// (or null) followed by the object that started the session.
const HookDescriptor = "(Ljava/io/File;Ljava/lang/Object;)V"

// Default hook owners and method name.
const (
	DefaultClientHook = "net/fabricmc/loader/entrypoint/hooks/EntrypointClient"
	DefaultServerHook = "net/fabricmc/loader/entrypoint/hooks/EntrypointServer"
	DefaultHookName   = "start"
)

// HookSymbol names a static method that receives control at session start.
type HookSymbol struct {
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
	Desc  string `yaml:"desc"`
}

func (h HookSymbol) String() string {
	return h.Owner + "." + h.Name + h.Desc
}

// HookKind selects which of the configured hooks a site calls.
type HookKind string

const (
	HookClient HookKind = "client"
	HookServer HookKind = "server"
)

// Hooks holds the resolved symbol for every hook kind.
type Hooks map[HookKind]HookSymbol

// DefaultHooks returns the loader's standard client and server hooks.
func DefaultHooks() Hooks {
	return Hooks{
		HookClient: {Owner: DefaultClientHook, Name: DefaultHookName, Desc: HookDescriptor},
		HookServer: {Owner: DefaultServerHook, Name: DefaultHookName, Desc: HookDescriptor},
	}
}

// ArgumentKind tells the injector how to produce the hook's path argument.
type ArgumentKind int

const (
	// ArgNull pushes a null reference.
	ArgNull ArgumentKind = iota
	// ArgLocal loads a reference from a local variable slot.
	ArgLocal
)

// Argument is the value pushed as the hook's first parameter.
type Argument struct {
	Kind ArgumentKind
	Slot uint16
}

// NullConstant is the argument used when no run directory is available.
func NullConstant() Argument { return Argument{Kind: ArgNull} }

// LoadLocal loads the reference held in slot.
func LoadLocal(slot uint16) Argument { return Argument{Kind: ArgLocal, Slot: slot} }

func (a Argument) String() string {
	if a.Kind == ArgLocal {
		return fmt.Sprintf("local %d", a.Slot)
	}

	return "null"
}
