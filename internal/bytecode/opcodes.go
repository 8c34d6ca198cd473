package bytecode

import "fmt"

// Opcode is a JVM opcode. Labels use OpLabel, which never appears in code.
type Opcode int

// OpLabel marks pseudo-instructions that occupy no bytes.
const OpLabel Opcode = -1

// Opcodes the patcher inspects or emits. Everything else is carried through
// decoding and assembly by the operand length table.
const (
	OpNop             Opcode = 0x00
	OpAconstNull      Opcode = 0x01
	OpBipush          Opcode = 0x10
	OpSipush          Opcode = 0x11
	OpLdc             Opcode = 0x12
	OpLdcW            Opcode = 0x13
	OpLdc2W           Opcode = 0x14
	OpIload           Opcode = 0x15
	OpLload           Opcode = 0x16
	OpFload           Opcode = 0x17
	OpDload           Opcode = 0x18
	OpAload           Opcode = 0x19
	OpIload0          Opcode = 0x1A
	OpAload0          Opcode = 0x2A
	OpAload3          Opcode = 0x2D
	OpIstore          Opcode = 0x36
	OpLstore          Opcode = 0x37
	OpFstore          Opcode = 0x38
	OpDstore          Opcode = 0x39
	OpAstore          Opcode = 0x3A
	OpIstore0         Opcode = 0x3B
	OpAstore3         Opcode = 0x4E
	OpPop             Opcode = 0x57
	OpDup             Opcode = 0x59
	OpIinc            Opcode = 0x84
	OpIfeq            Opcode = 0x99
	OpIfne            Opcode = 0x9A
	OpGoto            Opcode = 0xA7
	OpJsr             Opcode = 0xA8
	OpRet             Opcode = 0xA9
	OpTableswitch     Opcode = 0xAA
	OpLookupswitch    Opcode = 0xAB
	OpIreturn         Opcode = 0xAC
	OpAreturn         Opcode = 0xB0
	OpReturn          Opcode = 0xB1
	OpGetstatic       Opcode = 0xB2
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpInvokedynamic   Opcode = 0xBA
	OpNew             Opcode = 0xBB
	OpNewarray        Opcode = 0xBC
	OpAnewarray       Opcode = 0xBD
	OpAthrow          Opcode = 0xBF
	OpCheckcast       Opcode = 0xC0
	OpInstanceof      Opcode = 0xC1
	OpWide            Opcode = 0xC4
	OpMultianewarray  Opcode = 0xC5
	OpIfnull          Opcode = 0xC6
	OpIfnonnull       Opcode = 0xC7
	OpGotoW           Opcode = 0xC8
	OpJsrW            Opcode = 0xC9
)

// opNames is the JVM mnemonic table indexed by opcode.
var opNames = []string{"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1", "bipush", "sipush", "ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload", "dload", "aload", "iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1", "lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3", "dload_0", "dload_1", "dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload", "laload", "faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore", "fstore", "dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0", "lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0", "dstore_1", "dstore_2", "dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore", "lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore", "pop", "pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap", "iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub", "imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv", "irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg", "ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land", "ior", "lor", "ixor", "lxor", "iinc", "i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l", "d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto", "jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn", "areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial", "invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength", "athrow", "checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull", "goto_w", "jsr_w"}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if op == OpLabel {
		return "label"
	}

	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}

	return fmt.Sprintf("op_0x%02x", int(op))
}

// Valid reports whether op is a defined JVM opcode.
func (op Opcode) Valid() bool {
	return op >= 0 && int(op) < len(opNames)
}

// IsReturn reports whether op is one of the return instructions.
func (op Opcode) IsReturn() bool {
	return op >= OpIreturn && op <= OpReturn
}

// IsInvoke reports whether op calls a method through a method reference.
func (op Opcode) IsInvoke() bool {
	return op >= OpInvokevirtual && op <= OpInvokeinterface
}

// isJump reports whether op carries a single branch offset.
func (op Opcode) isJump() bool {
	return (op >= OpIfeq && op <= OpJsr) || op == OpIfnull || op == OpIfnonnull || op == OpGotoW || op == OpJsrW
}

// isVar reports whether op is the long form of a local variable load/store or ret.
func (op Opcode) isVar() bool {
	return (op >= OpIload && op <= OpAload) || (op >= OpIstore && op <= OpAstore) || op == OpRet
}

// shortVar maps the *_0 .. *_3 forms back to their long form and slot.
func shortVar(op Opcode) (Opcode, uint16, bool) {
	switch {
	case op >= OpIload0 && op <= OpAload3:
		rel := int(op - OpIload0)
		return OpIload + Opcode(rel/4), uint16(rel % 4), true
	case op >= OpIstore0 && op <= OpAstore3:
		rel := int(op - OpIstore0)
		return OpIstore + Opcode(rel/4), uint16(rel % 4), true
	}

	return 0, 0, false
}

// operandLength returns the number of operand bytes of fixed-size opcodes.
// Switches and wide return -1 because their size depends on the code.
func operandLength(op Opcode) int {
	switch {
	case op == OpTableswitch || op == OpLookupswitch || op == OpWide:
		return -1
	case op == OpBipush || op == OpLdc || op == OpNewarray || op.isVar():
		return 1
	case op == OpSipush || op == OpLdcW || op == OpLdc2W || op == OpIinc:
		return 2
	case op == OpGotoW || op == OpJsrW || op == OpInvokeinterface || op == OpInvokedynamic:
		return 4
	case op == OpMultianewarray:
		return 3
	case op.isJump():
		return 2
	case op >= OpGetstatic && op <= OpInvokestatic:
		return 2
	case op == OpNew || op == OpAnewarray || op == OpCheckcast || op == OpInstanceof:
		return 2
	}

	return 0
}
