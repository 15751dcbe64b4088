package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Insts Package", func() {
	Describe("Op String", func() {
		It("should return mnemonic names", func() {
			Expect(insts.OpADD.String()).To(Equal("add"))
			Expect(insts.OpJALR.String()).To(Equal("jalr"))
			Expect(insts.OpUnknown.String()).To(Equal("unknown"))
		})
	})

	Describe("source register usage", func() {
		var decoder *insts.Decoder

		BeforeEach(func() {
			decoder = insts.NewDecoder()
		})

		It("should read rs1 and rs2 for R-format", func() {
			inst := decoder.Decode(insts.ADD(3, 1, 2))

			Expect(inst.ReadsRs1()).To(BeTrue())
			Expect(inst.ReadsRs2()).To(BeTrue())
		})

		It("should read only rs1 for I-format", func() {
			inst := decoder.Decode(insts.ADDI(3, 1, 5))

			Expect(inst.ReadsRs1()).To(BeTrue())
			Expect(inst.ReadsRs2()).To(BeFalse())
		})

		It("should read neither for U- and J-format", func() {
			lui := decoder.Decode(insts.LUI(3, 0x1000))
			jal := decoder.Decode(insts.JAL(1, 8))

			Expect(lui.ReadsRs1()).To(BeFalse())
			Expect(lui.ReadsRs2()).To(BeFalse())
			Expect(jal.ReadsRs1()).To(BeFalse())
			Expect(jal.ReadsRs2()).To(BeFalse())
		})

		It("should read both for stores and branches", func() {
			sw := decoder.Decode(insts.SW(2, 1, 0))
			beq := decoder.Decode(insts.BEQ(1, 2, 8))

			Expect(sw.ReadsRs1()).To(BeTrue())
			Expect(sw.ReadsRs2()).To(BeTrue())
			Expect(beq.ReadsRs1()).To(BeTrue())
			Expect(beq.ReadsRs2()).To(BeTrue())
		})
	})

	Describe("register write-back", func() {
		var decoder *insts.Decoder

		BeforeEach(func() {
			decoder = insts.NewDecoder()
		})

		It("should write RF for arithmetic, loads, and links", func() {
			Expect(decoder.Decode(insts.ADD(3, 1, 2)).WritesRF()).To(BeTrue())
			Expect(decoder.Decode(insts.LW(3, 1, 0)).WritesRF()).To(BeTrue())
			Expect(decoder.Decode(insts.JAL(1, 8)).WritesRF()).To(BeTrue())
			Expect(decoder.Decode(insts.JALR(1, 2, 0)).WritesRF()).To(BeTrue())
		})

		It("should not write RF for stores and branches", func() {
			Expect(decoder.Decode(insts.SW(2, 1, 0)).WritesRF()).To(BeFalse())
			Expect(decoder.Decode(insts.BNE(1, 2, 8)).WritesRF()).To(BeFalse())
		})
	})
})
