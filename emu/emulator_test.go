package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// loadProgram writes words into memory starting at address 0.
func loadProgram(memory *emu.Memory, words ...uint32) {
	for i, w := range words {
		memory.Write32(uint32(i)*4, w)
	}
}

var _ = Describe("Emulator", func() {
	var (
		memory *emu.Memory
		e      *emu.Emulator
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		e = emu.NewEmulator(emu.WithMemory(memory))
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).To(BeIdenticalTo(memory))
		})
	})

	Describe("the halt word", func() {
		It("should stop without writing x10", func() {
			loadProgram(memory,
				insts.ADDI(10, 0, 42),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(42)))
			Expect(e.RegFile().ReadReg(10)).To(Equal(uint32(42)))
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
		})
	})

	Describe("arithmetic", func() {
		It("should execute a dependent chain", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 6),
				insts.ADDI(2, 0, 7),
				insts.ADD(3, 1, 2),
				insts.SLLI(3, 3, 1),
				insts.ADDI(10, 3, 16),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(42)))
		})

		It("should treat SLT as signed and SLTU as unsigned", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, -1),
				insts.ADDI(2, 0, 1),
				insts.SLT(3, 1, 2),
				insts.SLTU(4, 1, 2),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(1)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(0)))
		})

		It("should never write x0", func() {
			loadProgram(memory,
				insts.ADDI(0, 0, 99),
				insts.ADDI(10, 0, 5),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(5)))
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0)))
		})
	})

	Describe("branches", func() {
		It("should sum one through ten", func() {
			loadProgram(memory,
				insts.ADDI(5, 0, 10),
				insts.ADDI(10, 0, 0),
				insts.ADDI(6, 0, 1),
				insts.ADD(10, 10, 6),
				insts.ADDI(6, 6, 1),
				insts.BGE(5, 6, -8),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(55)))
		})

		It("should skip over a not-taken branch", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 1),
				insts.BEQ(1, 0, 8),
				insts.ADDI(10, 0, 3),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(3)))
		})
	})

	Describe("jumps", func() {
		It("should call and return through JAL and JALR", func() {
			loadProgram(memory,
				insts.JAL(1, 12),      // 0x00: call 0x0c
				insts.HaltWord,        // 0x04
				insts.ADDI(0, 0, 0),   // 0x08: never reached
				insts.ADDI(10, 0, 7),  // 0x0c
				insts.JALR(0, 1, 0),   // 0x10: return to 0x04
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(7)))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(4)))
		})

		It("should build addresses with LUI and AUIPC", func() {
			loadProgram(memory,
				insts.LUI(1, 0x1000),
				insts.AUIPC(2, 0x1000),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(0x1000)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint32(0x1004)))
		})
	})

	Describe("loads and stores", func() {
		It("should store and load a word", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 0x100),
				insts.ADDI(2, 0, 77),
				insts.SW(2, 1, 0),
				insts.LW(10, 1, 0),
				insts.HaltWord,
			)

			output, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(77)))
		})

		It("should sign-extend LB and zero-extend LBU", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 0x80),
				insts.SB(1, 0, 0x100),
				insts.LB(2, 0, 0x100),
				insts.LBU(3, 0, 0x100),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint32(0xFFFFFF80)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(0x80)))
		})

		It("should store and load halfwords", func() {
			loadProgram(memory,
				insts.LUI(1, 0x12345000),
				insts.ADDI(1, 1, 0x678),
				insts.SH(1, 0, 0x200),
				insts.LHU(2, 0, 0x200),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint32(0x5678)))
		})
	})

	Describe("error handling", func() {
		It("should fail on an illegal instruction", func() {
			loadProgram(memory, 0xFFFFFFFF)

			_, err := e.Run()

			Expect(err).To(HaveOccurred())
		})

		It("should fail on an out-of-range store", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, -4),
				insts.SW(1, 1, 0),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out-of-range"))
		})

		It("should fail on an out-of-range load", func() {
			loadProgram(memory,
				insts.LUI(1, 0x00400000),
				insts.LW(2, 1, 0),
				insts.HaltWord,
			)

			_, err := e.Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out-of-range"))
		})

		It("should enforce the instruction limit", func() {
			// JAL x0, 0 spins forever.
			loadProgram(memory, insts.JAL(0, 0))
			e = emu.NewEmulator(
				emu.WithMemory(memory),
				emu.WithMaxInstructions(100),
			)

			_, err := e.Run()

			Expect(err).To(HaveOccurred())
		})
	})
})
