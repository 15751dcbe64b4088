package core_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/core"
)

var _ = Describe("Core", func() {
	var (
		memory *emu.Memory
		c      *core.Core
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		c = core.NewCore(memory)
	})

	It("should create a core with a processor", func() {
		Expect(c).NotTo(BeNil())
		Expect(c.Processor).NotTo(BeNil())
	})

	It("should not be halted initially", func() {
		Expect(c.Halted()).To(BeFalse())
	})

	Describe("LoadHex", func() {
		It("should place words into memory", func() {
			image := "@00000000\n02A00513 0FF00513\n"

			err := c.LoadHex(strings.NewReader(image))

			Expect(err).NotTo(HaveOccurred())
			Expect(memory.Read32(0)).To(Equal(uint32(0x02A00513)))
			Expect(memory.Read32(4)).To(Equal(uint32(0x0FF00513)))
		})

		It("should report malformed images", func() {
			err := c.LoadHex(strings.NewReader("not-hex\n"))

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Run", func() {
		It("should run a loaded program to completion", func() {
			// ADDI x10, x0, 42 followed by the halt word.
			image := "02A00513\n0FF00513\n"
			Expect(c.LoadHex(strings.NewReader(image))).To(Succeed())

			output, err := c.Run(100_000)

			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(Equal(uint8(42)))
			Expect(c.Halted()).To(BeTrue())
			Expect(c.Output()).To(Equal(uint8(42)))
		})

		It("should expose statistics after a run", func() {
			image := "02A00513\n0FF00513\n"
			Expect(c.LoadHex(strings.NewReader(image))).To(Succeed())

			_, err := c.Run(100_000)

			Expect(err).NotTo(HaveOccurred())
			stats := c.Stats()
			Expect(stats.InstructionsRetired).To(Equal(uint64(2)))
			Expect(stats.Cycles).To(BeNumerically(">", 0))
		})
	})

	Describe("Tick", func() {
		It("should advance one cycle at a time", func() {
			image := "02A00513\n0FF00513\n"
			Expect(c.LoadHex(strings.NewReader(image))).To(Succeed())

			Expect(c.Tick()).To(Succeed())

			Expect(c.Stats().Cycles).To(Equal(uint64(1)))
		})
	})
})
