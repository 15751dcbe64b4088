package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory()
	})

	It("should start zeroed", func() {
		Expect(memory.Read32(0)).To(Equal(uint32(0)))
		Expect(memory.Read8(emu.MemorySize - 1)).To(Equal(uint8(0)))
	})

	It("should store words little-endian", func() {
		memory.Write32(0x100, 0x12345678)

		Expect(memory.Read8(0x100)).To(Equal(uint8(0x78)))
		Expect(memory.Read8(0x101)).To(Equal(uint8(0x56)))
		Expect(memory.Read8(0x102)).To(Equal(uint8(0x34)))
		Expect(memory.Read8(0x103)).To(Equal(uint8(0x12)))
		Expect(memory.Read32(0x100)).To(Equal(uint32(0x12345678)))
	})

	It("should compose halfwords from bytes", func() {
		memory.Write8(0x200, 0xCD)
		memory.Write8(0x201, 0xAB)

		Expect(memory.Read16(0x200)).To(Equal(uint16(0xABCD)))
	})

	It("should overwrite only the addressed bytes", func() {
		memory.Write32(0x300, 0xAABBCCDD)
		memory.Write16(0x300, 0x1122)

		Expect(memory.Read32(0x300)).To(Equal(uint32(0xAABB1122)))
	})

	Describe("access checking", func() {
		It("should accept accesses up to the last byte", func() {
			Expect(memory.CheckAccess(0, 4)).To(Succeed())
			Expect(memory.CheckAccess(emu.MemorySize-4, 4)).To(Succeed())
			Expect(memory.CheckAccess(emu.MemorySize-1, 1)).To(Succeed())
		})

		It("should reject accesses past the end", func() {
			Expect(memory.CheckAccess(emu.MemorySize, 1)).NotTo(Succeed())
			Expect(memory.CheckAccess(emu.MemorySize-3, 4)).NotTo(Succeed())
			Expect(memory.CheckAccess(0xFFFFFFFF, 4)).NotTo(Succeed())
		})

		It("should name the faulting address", func() {
			err := memory.CheckAccess(0xFFFFFF00, 4)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("0xFFFFFF00"))
		})
	})

	Describe("width-parameterized access", func() {
		It("should zero-extend narrow reads", func() {
			memory.Write32(0x400, 0xFFFFFFFF)

			Expect(memory.ReadWidth(0x400, 1)).To(Equal(uint32(0xFF)))
			Expect(memory.ReadWidth(0x400, 2)).To(Equal(uint32(0xFFFF)))
			Expect(memory.ReadWidth(0x400, 4)).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should write only the low bytes for narrow widths", func() {
			memory.WriteWidth(0x500, 1, 0x12345678)
			Expect(memory.Read32(0x500)).To(Equal(uint32(0x78)))

			memory.WriteWidth(0x504, 2, 0x12345678)
			Expect(memory.Read32(0x504)).To(Equal(uint32(0x5678)))
		})
	})
})
