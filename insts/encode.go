package insts

// Encoding helpers for assembling RV32I instruction words. They are the
// inverse of the Decoder and are used heavily by tests to build programs
// without an external assembler.

// EncodeR assembles an R-type word.
func EncodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeI assembles an I-type word. The immediate is truncated to 12 bits.
func EncodeI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return uint32(imm)&0xFFF<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeS assembles an S-type word.
func EncodeS(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

// EncodeB assembles a B-type word. The offset must be even.
func EncodeB(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | (u>>1&0xF)<<8 | (u>>11&0x1)<<7 | opcode
}

// EncodeU assembles a U-type word from an immediate whose bits [31:12]
// are already in place.
func EncodeU(imm int32, rd, opcode uint32) uint32 {
	return uint32(imm)&0xFFFFF000 | rd<<7 | opcode
}

// EncodeJ assembles a J-type word. The offset must be even.
func EncodeJ(imm int32, rd, opcode uint32) uint32 {
	u := uint32(imm)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 |
		(u>>12&0xFF)<<12 | rd<<7 | opcode
}

// ADDI assembles addi rd, rs1, imm.
func ADDI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b000, rd, opcodeOpImm) }

// SLTI assembles slti rd, rs1, imm.
func SLTI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b010, rd, opcodeOpImm) }

// SLTIU assembles sltiu rd, rs1, imm.
func SLTIU(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b011, rd, opcodeOpImm) }

// XORI assembles xori rd, rs1, imm.
func XORI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b100, rd, opcodeOpImm) }

// ORI assembles ori rd, rs1, imm.
func ORI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b110, rd, opcodeOpImm) }

// ANDI assembles andi rd, rs1, imm.
func ANDI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b111, rd, opcodeOpImm) }

// SLLI assembles slli rd, rs1, shamt.
func SLLI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(int32(shamt&0x1F), rs1, 0b001, rd, opcodeOpImm)
}

// SRLI assembles srli rd, rs1, shamt.
func SRLI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(int32(shamt&0x1F), rs1, 0b101, rd, opcodeOpImm)
}

// SRAI assembles srai rd, rs1, shamt.
func SRAI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(int32(0b0100000<<5|shamt&0x1F), rs1, 0b101, rd, opcodeOpImm)
}

// ADD assembles add rd, rs1, rs2.
func ADD(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b000, rd, opcodeOp) }

// SUB assembles sub rd, rs1, rs2.
func SUB(rd, rs1, rs2 uint32) uint32 { return EncodeR(0b0100000, rs2, rs1, 0b000, rd, opcodeOp) }

// SLL assembles sll rd, rs1, rs2.
func SLL(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b001, rd, opcodeOp) }

// SLT assembles slt rd, rs1, rs2.
func SLT(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b010, rd, opcodeOp) }

// SLTU assembles sltu rd, rs1, rs2.
func SLTU(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b011, rd, opcodeOp) }

// XOR assembles xor rd, rs1, rs2.
func XOR(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b100, rd, opcodeOp) }

// SRL assembles srl rd, rs1, rs2.
func SRL(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b101, rd, opcodeOp) }

// SRA assembles sra rd, rs1, rs2.
func SRA(rd, rs1, rs2 uint32) uint32 { return EncodeR(0b0100000, rs2, rs1, 0b101, rd, opcodeOp) }

// OR assembles or rd, rs1, rs2.
func OR(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b110, rd, opcodeOp) }

// AND assembles and rd, rs1, rs2.
func AND(rd, rs1, rs2 uint32) uint32 { return EncodeR(0, rs2, rs1, 0b111, rd, opcodeOp) }

// LUI assembles lui rd, imm where imm carries bits [31:12].
func LUI(rd uint32, imm int32) uint32 { return EncodeU(imm, rd, opcodeLUI) }

// AUIPC assembles auipc rd, imm where imm carries bits [31:12].
func AUIPC(rd uint32, imm int32) uint32 { return EncodeU(imm, rd, opcodeAUIPC) }

// JAL assembles jal rd, offset.
func JAL(rd uint32, offset int32) uint32 { return EncodeJ(offset, rd, opcodeJAL) }

// JALR assembles jalr rd, rs1, imm.
func JALR(rd, rs1 uint32, imm int32) uint32 { return EncodeI(imm, rs1, 0b000, rd, opcodeJALR) }

// BEQ assembles beq rs1, rs2, offset.
func BEQ(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b000, opcodeBranch) }

// BNE assembles bne rs1, rs2, offset.
func BNE(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b001, opcodeBranch) }

// BLT assembles blt rs1, rs2, offset.
func BLT(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b100, opcodeBranch) }

// BGE assembles bge rs1, rs2, offset.
func BGE(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b101, opcodeBranch) }

// BLTU assembles bltu rs1, rs2, offset.
func BLTU(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b110, opcodeBranch) }

// BGEU assembles bgeu rs1, rs2, offset.
func BGEU(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(offset, rs2, rs1, 0b111, opcodeBranch) }

// LB assembles lb rd, offset(rs1).
func LB(rd, rs1 uint32, offset int32) uint32 { return EncodeI(offset, rs1, 0b000, rd, opcodeLoad) }

// LH assembles lh rd, offset(rs1).
func LH(rd, rs1 uint32, offset int32) uint32 { return EncodeI(offset, rs1, 0b001, rd, opcodeLoad) }

// LW assembles lw rd, offset(rs1).
func LW(rd, rs1 uint32, offset int32) uint32 { return EncodeI(offset, rs1, 0b010, rd, opcodeLoad) }

// LBU assembles lbu rd, offset(rs1).
func LBU(rd, rs1 uint32, offset int32) uint32 { return EncodeI(offset, rs1, 0b100, rd, opcodeLoad) }

// LHU assembles lhu rd, offset(rs1).
func LHU(rd, rs1 uint32, offset int32) uint32 { return EncodeI(offset, rs1, 0b101, rd, opcodeLoad) }

// SB assembles sb rs2, offset(rs1).
func SB(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(offset, rs2, rs1, 0b000, opcodeStore) }

// SH assembles sh rs2, offset(rs1).
func SH(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(offset, rs2, rs1, 0b001, opcodeStore) }

// SW assembles sw rs2, offset(rs1).
func SW(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(offset, rs2, rs1, 0b010, opcodeStore) }
