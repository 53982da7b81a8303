package pvm

// Opcode constants and operand-group classification. Only the dispatch
// contract and operand-extraction rules are fully worked out here; the
// concrete arithmetic/control semantics of each of the ~150 Appendix-A
// opcodes are out of scope beyond the handful needed to demonstrate each
// operand group end to end.
//
// Grounded on GVM's vm/bytecode.go (big doc-comment enumerating an opcode
// space, plus per-instruction operand-arity predicates) generalized from a
// dense small enum to a sparse set of numeric groups.

type Opcode byte

const (
	TRAP        Opcode = 0
	FALLTHROUGH Opcode = 1

	ECALLI Opcode = 10

	LOAD_IMM_64 Opcode = 20

	STORE_IMM_U8  Opcode = 30
	STORE_IMM_U16 Opcode = 31
	STORE_IMM_U32 Opcode = 32
	STORE_IMM_U64 Opcode = 33

	JUMP Opcode = 40

	// One register + one immediate, 50-62.
	JUMP_IND    Opcode = 50
	LOAD_IMM    Opcode = 51
	LOAD_U8     Opcode = 52
	LOAD_I8     Opcode = 53
	LOAD_U16    Opcode = 54
	LOAD_I16    Opcode = 55
	LOAD_U32    Opcode = 56
	LOAD_I32    Opcode = 57
	LOAD_U64    Opcode = 58
	STORE_U8R   Opcode = 59
	STORE_U16R  Opcode = 60
	STORE_U32R  Opcode = 61
	STORE_U64R  Opcode = 62

	// One register + two immediates, 70-73.
	STORE_IMM_IND_U8  Opcode = 70
	STORE_IMM_IND_U16 Opcode = 71
	STORE_IMM_IND_U32 Opcode = 72
	STORE_IMM_IND_U64 Opcode = 73

	// One register, one immediate, one offset, 80-90.
	BRANCH_EQ_IMM  Opcode = 80
	BRANCH_NE_IMM  Opcode = 81
	BRANCH_LT_U_IMM Opcode = 82
	BRANCH_LE_U_IMM Opcode = 83
	BRANCH_GE_U_IMM Opcode = 84
	BRANCH_GT_U_IMM Opcode = 85
	BRANCH_LT_S_IMM Opcode = 86
	BRANCH_LE_S_IMM Opcode = 87
	BRANCH_GE_S_IMM Opcode = 88
	BRANCH_GT_S_IMM Opcode = 89
	MOVE_REG_IMM    Opcode = 90

	// Two registers, 100-111.
	MOVE_REG    Opcode = 100
	SBRK        Opcode = 101
	COUNT_SET_BITS_64 Opcode = 102
	COUNT_SET_BITS_32 Opcode = 103
	LEADING_ZERO_BITS_64 Opcode = 104
	LEADING_ZERO_BITS_32 Opcode = 105
	TRAILING_ZERO_BITS_64 Opcode = 106
	TRAILING_ZERO_BITS_32 Opcode = 107
	SIGN_EXTEND_8 Opcode = 108
	SIGN_EXTEND_16 Opcode = 109
	ZERO_EXTEND_16 Opcode = 110
	REVERSE_BYTES Opcode = 111

	// Two registers + one immediate, 120-161.
	STORE_IND_U8  Opcode = 120
	STORE_IND_U16 Opcode = 121
	STORE_IND_U32 Opcode = 122
	STORE_IND_U64 Opcode = 123
	LOAD_IND_U8   Opcode = 124
	LOAD_IND_I8   Opcode = 125
	LOAD_IND_U16  Opcode = 126
	LOAD_IND_I16  Opcode = 127
	LOAD_IND_U32  Opcode = 128
	LOAD_IND_I32  Opcode = 129
	LOAD_IND_U64  Opcode = 130
	ADD_IMM_32    Opcode = 131
	AND_IMM       Opcode = 132
	XOR_IMM       Opcode = 133
	OR_IMM        Opcode = 134
	MUL_IMM_32    Opcode = 135
	SET_LT_U_IMM  Opcode = 136
	SET_LT_S_IMM  Opcode = 137
	SHLO_L_IMM_32 Opcode = 138
	SHLO_R_IMM_32 Opcode = 139
	SHAR_R_IMM_32 Opcode = 140
	NEG_ADD_IMM_32 Opcode = 141
	SET_GT_U_IMM  Opcode = 142
	SET_GT_S_IMM  Opcode = 143
	SHLO_L_IMM_ALT_32 Opcode = 144
	SHLO_R_IMM_ALT_32 Opcode = 145
	SHAR_R_IMM_ALT_32 Opcode = 146
	CMOV_IZ_IMM   Opcode = 147
	CMOV_NZ_IMM   Opcode = 148
	ADD_IMM_64    Opcode = 149
	MUL_IMM_64    Opcode = 150
	SHLO_L_IMM_64 Opcode = 151
	SHLO_R_IMM_64 Opcode = 152
	SHAR_R_IMM_64 Opcode = 153
	NEG_ADD_IMM_64 Opcode = 154
	SHLO_L_IMM_ALT_64 Opcode = 155
	SHLO_R_IMM_ALT_64 Opcode = 156
	SHAR_R_IMM_ALT_64 Opcode = 157
	ROT_R_64_IMM  Opcode = 158
	ROT_R_64_IMM_ALT Opcode = 159
	ROT_R_32_IMM  Opcode = 160
	ROT_R_32_IMM_ALT Opcode = 161

	// Two registers + one offset, 170-175.
	BRANCH_EQ    Opcode = 170
	BRANCH_NE    Opcode = 171
	BRANCH_LT_U  Opcode = 172
	BRANCH_LT_S  Opcode = 173
	BRANCH_GE_U  Opcode = 174
	BRANCH_GE_S  Opcode = 175

	// Two registers + two immediates, 180.
	LOAD_IMM_JUMP_IND Opcode = 180

	// Three registers, 190-230.
	ADD_32      Opcode = 190
	SUB_32      Opcode = 191
	MUL_32      Opcode = 192
	DIV_U_32    Opcode = 193
	DIV_S_32    Opcode = 194
	REM_U_32    Opcode = 195
	REM_S_32    Opcode = 196
	SHLO_L_32   Opcode = 197
	SHLO_R_32   Opcode = 198
	SHAR_R_32   Opcode = 199
	ADD_64      Opcode = 200
	SUB_64      Opcode = 201
	MUL_64      Opcode = 202
	DIV_U_64    Opcode = 203
	DIV_S_64    Opcode = 204
	REM_U_64    Opcode = 205
	REM_S_64    Opcode = 206
	SHLO_L_64   Opcode = 207
	SHLO_R_64   Opcode = 208
	SHAR_R_64   Opcode = 209
	AND         Opcode = 210
	XOR         Opcode = 211
	OR          Opcode = 212
	MUL_UPPER_S_S Opcode = 213
	MUL_UPPER_U_U Opcode = 214
	MUL_UPPER_S_U Opcode = 215
	SET_LT_U    Opcode = 216
	SET_LT_S    Opcode = 217
	CMOV_IZ     Opcode = 218
	CMOV_NZ     Opcode = 219
	ROT_L_64    Opcode = 220
	ROT_L_32    Opcode = 221
	ROT_R_64    Opcode = 222
	ROT_R_32    Opcode = 223
	AND_INV     Opcode = 224
	OR_INV      Opcode = 225
	XNOR        Opcode = 226
	MAX         Opcode = 227
	MAX_U       Opcode = 228
	MIN         Opcode = 229
	MIN_U       Opcode = 230
)

// OperandGroup classifies an opcode by the shape of its operand encoding.
// The interpreter's fetch step uses this purely to know how
// many immediate/offset/register bytes follow the opcode byte within the
// instruction's Fskip-bounded window; it carries no execution semantics.
type OperandGroup int

const (
	GroupNone OperandGroup = iota
	GroupOneImmediate
	GroupRegImm64 // LOAD_IMM_64: one register + extended (8-byte) immediate
	GroupTwoImmediates
	GroupOneOffset
	GroupRegImm
	GroupRegTwoImmediates
	GroupRegImmOffset
	GroupTwoRegs
	GroupTwoRegsImm
	GroupTwoRegsOffset
	GroupTwoRegsTwoImmediates
	GroupThreeRegs
)

// GroupOf returns the operand group an opcode belongs to. Opcodes with no
// registered group (a gap in the numeric ranges, or an opcode the registry
// has no handler for) fall back to GroupNone, the same shape as TRAP, so an
// unrecognized opcode in the fetch loop always decodes as "take no operands,
// then let the registry's panic handler fire".
func GroupOf(op Opcode) OperandGroup {
	n := int(op)
	switch {
	case op == TRAP || op == FALLTHROUGH:
		return GroupNone
	case op == ECALLI:
		return GroupOneImmediate
	case op == LOAD_IMM_64:
		return GroupRegImm64
	case n >= 30 && n <= 33:
		return GroupTwoImmediates
	case op == JUMP:
		return GroupOneOffset
	case n >= 50 && n <= 62:
		return GroupRegImm
	case n >= 70 && n <= 73:
		return GroupRegTwoImmediates
	case n >= 80 && n <= 90:
		return GroupRegImmOffset
	case n >= 100 && n <= 111:
		return GroupTwoRegs
	case n >= 120 && n <= 161:
		return GroupTwoRegsImm
	case n >= 170 && n <= 175:
		return GroupTwoRegsOffset
	case n == 180:
		return GroupTwoRegsTwoImmediates
	case n >= 190 && n <= 230:
		return GroupThreeRegs
	default:
		return GroupNone
	}
}
