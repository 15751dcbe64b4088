package ooo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/ooo"
)

const maxTestCycles = 100_000

// loadProgram writes words into memory starting at address 0.
func loadProgram(memory *emu.Memory, words ...uint32) {
	for i, w := range words {
		memory.Write32(uint32(i)*4, w)
	}
}

// pcCollector records the PC of every retired instruction.
type pcCollector struct {
	pcs []uint32
}

func (c *pcCollector) Func(ctx sim.HookCtx) {
	if ctx.Pos != ooo.HookPosInstRetire {
		return
	}
	ret := ctx.Item.(ooo.Retirement)
	c.pcs = append(c.pcs, ret.PC)
}

var _ = Describe("Processor", func() {
	var (
		memory *emu.Memory
		p      *ooo.Processor
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		p = ooo.NewProcessor(memory)
	})

	Describe("straight-line code", func() {
		It("should compute and halt", func() {
			loadProgram(memory,
				insts.ADDI(10, 0, 42),
				insts.HaltWord,
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(42)))
			Expect(p.Halted()).To(BeTrue())
			Expect(p.Stats().InstructionsRetired).To(Equal(uint64(2)))
		})

		It("should resolve a dependent chain through the common data bus", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 6),
				insts.ADDI(2, 0, 7),
				insts.ADD(3, 1, 2),
				insts.SLLI(3, 3, 1),
				insts.ADDI(10, 3, 16),
				insts.HaltWord,
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(42)))
			Expect(p.Reg(3)).To(Equal(uint32(26)))
		})

		It("should keep x0 hardwired to zero", func() {
			loadProgram(memory,
				insts.ADDI(0, 0, 99),
				insts.ADD(10, 0, 0),
				insts.HaltWord,
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(0)))
			Expect(p.Reg(0)).To(Equal(uint32(0)))
		})

		It("should not take architectural effect from the halt word", func() {
			loadProgram(memory,
				insts.ADDI(10, 0, 42),
				insts.HaltWord,
			)

			_, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Reg(10)).To(Equal(uint32(42)))
		})
	})

	Describe("branch prediction", func() {
		It("should mispredict the first encounter of a taken branch", func() {
			loadProgram(memory,
				insts.ADDI(10, 0, 1), // 0x00
				insts.BEQ(0, 0, 8),   // 0x04: always taken, to 0x0c
				insts.ADDI(10, 0, 99), // 0x08: must never retire
				insts.HaltWord,       // 0x0c
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(1)))
			Expect(p.Stats().Mispredictions).To(Equal(uint64(1)))
			Expect(p.Stats().Branches).To(Equal(uint64(1)))
		})

		It("should sum one through ten with exactly two mispredictions", func() {
			loadProgram(memory,
				insts.ADDI(5, 0, 10),  // 0x00: limit
				insts.ADDI(10, 0, 0),  // 0x04: acc
				insts.ADDI(6, 0, 1),   // 0x08: i
				insts.ADD(10, 10, 6),  // 0x0c: acc += i
				insts.ADDI(6, 6, 1),   // 0x10: i++
				insts.BGE(5, 6, -8),   // 0x14: loop while i <= limit
				insts.HaltWord,        // 0x18
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(55)))
			// The first loop branch lacks a cached target and the final
			// one falls through against a saturated counter.
			Expect(p.Stats().Mispredictions).To(Equal(uint64(2)))
			Expect(p.Stats().Branches).To(Equal(uint64(10)))
		})
	})

	Describe("jumps", func() {
		It("should call and return through JAL and JALR", func() {
			loadProgram(memory,
				insts.JAL(1, 12),     // 0x00: call 0x0c
				insts.HaltWord,       // 0x04
				insts.ADDI(0, 0, 0),  // 0x08: never reached
				insts.ADDI(10, 0, 7), // 0x0c
				insts.JALR(0, 1, 0),  // 0x10: return to 0x04
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(7)))
			Expect(p.Reg(1)).To(Equal(uint32(4)))
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

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(77)))
			Expect(memory.Read32(0x100)).To(Equal(uint32(77)))
		})

		It("should not let a wrong-path store reach memory", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 0x100), // 0x00
				insts.ADDI(2, 0, 7),     // 0x04
				insts.BEQ(0, 0, 12),     // 0x08: always taken, to 0x14
				insts.SW(2, 1, 0),       // 0x0c: wrong path
				insts.ADDI(0, 0, 0),     // 0x10
				insts.ADDI(10, 0, 1),    // 0x14
				insts.HaltWord,          // 0x18
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(1)))
			Expect(memory.Read32(0x100)).To(Equal(uint32(0)))
		})

		It("should abort on an out-of-range store", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, -4),
				insts.ADDI(2, 0, 7),
				insts.SW(2, 1, 0),
				insts.HaltWord,
			)

			_, err := p.Run(maxTestCycles)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out-of-range"))
		})

		It("should abort on an out-of-range load", func() {
			loadProgram(memory,
				insts.LUI(1, 0x00400000),
				insts.LW(2, 1, 0),
				insts.HaltWord,
			)

			_, err := p.Run(maxTestCycles)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out-of-range"))
		})

		It("should sign-extend LB and zero-extend LBU", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 0x80),
				insts.SB(1, 0, 0x100),
				insts.LB(2, 0, 0x100),
				insts.LBU(3, 0, 0x100),
				insts.HaltWord,
			)

			_, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Reg(2)).To(Equal(uint32(0xFFFFFF80)))
			Expect(p.Reg(3)).To(Equal(uint32(0x80)))
		})
	})

	Describe("statistics", func() {
		It("should count memory transactions for fetch traffic", func() {
			loadProgram(memory,
				insts.ADDI(10, 0, 3),
				insts.HaltWord,
			)

			_, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Stats().MemoryTransactions).To(BeNumerically(">", 0))
			Expect(p.Stats().Cycles).To(Equal(p.Cycles()))
			Expect(p.Stats().IPC()).To(BeNumerically(">", 0))
		})
	})

	Describe("retirement order", func() {
		It("should retire in program order, matching the emulator trace", func() {
			program := []uint32{
				insts.ADDI(5, 0, 3),
				insts.ADDI(10, 0, 0),
				insts.ADDI(6, 0, 1),
				insts.ADD(10, 10, 6),
				insts.ADDI(6, 6, 1),
				insts.BGE(5, 6, -8),
				insts.HaltWord,
			}
			loadProgram(memory, program...)

			refMemory := emu.NewMemory()
			loadProgram(refMemory, program...)
			ref := emu.NewEmulator(emu.WithMemory(refMemory))
			var want []uint32
			for {
				pc := ref.RegFile().PC
				res := ref.Step()
				Expect(res.Err).NotTo(HaveOccurred())
				want = append(want, pc)
				if res.Halted {
					break
				}
			}

			collector := &pcCollector{}
			p.AcceptHook(collector)

			_, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(collector.pcs).To(Equal(want))
		})
	})

	Describe("cycle limits", func() {
		It("should report an error when a program never halts", func() {
			// JAL x0, 0 spins forever.
			loadProgram(memory, insts.JAL(0, 0))

			_, err := p.Run(200)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("configuration options", func() {
		It("should run correctly with minimal structure sizes", func() {
			loadProgram(memory,
				insts.ADDI(1, 0, 6),
				insts.ADDI(2, 0, 7),
				insts.ADD(10, 1, 2),
				insts.HaltWord,
			)
			p = ooo.NewProcessor(memory,
				ooo.WithROBCapacity(2),
				ooo.WithRSCapacity(1),
				ooo.WithLSBCapacity(1),
				ooo.WithIFUQueueCapacity(1),
				ooo.WithMemLatency(1),
			)

			output, err := p.Run(maxTestCycles)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(13)))
		})
	})
})
