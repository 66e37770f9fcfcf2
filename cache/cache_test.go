package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	var c *Cache

	BeforeEach(func() {
		c = New(Geometry{SetBits: 4, Ways: 4, BlockBits: 6})
	})

	It("should start with all lines invalid and clean", func() {
		for setID := 0; setID < c.Geometry().NumSets(); setID++ {
			set := c.Set(setID)
			Expect(set.Lines).To(HaveLen(4))

			for _, line := range set.Lines {
				Expect(line.Valid).To(BeFalse())
				Expect(line.Dirty).To(BeFalse())
				Expect(line.LastUsed).To(Equal(uint64(0)))
			}
		}
	})

	It("should lookup a valid line by tag", func() {
		line := c.Line(3, 2)
		line.Valid = true
		line.Tag = 0x100

		wayID, ok := c.Lookup(3, 0x100)

		Expect(ok).To(BeTrue())
		Expect(wayID).To(Equal(2))
	})

	It("should miss when no line holds the tag", func() {
		_, ok := c.Lookup(3, 0x100)

		Expect(ok).To(BeFalse())
	})

	It("should not match an invalid line", func() {
		line := c.Line(3, 2)
		line.Valid = false
		line.Tag = 0x100

		_, ok := c.Lookup(3, 0x100)

		Expect(ok).To(BeFalse())
	})

	It("should find the lowest-index free way", func() {
		c.Line(5, 0).Valid = true

		wayID, ok := c.FreeWay(5)

		Expect(ok).To(BeTrue())
		Expect(wayID).To(Equal(1))
	})

	It("should report no free way in a full set", func() {
		for i := 0; i < 4; i++ {
			c.Line(5, i).Valid = true
		}

		_, ok := c.FreeWay(5)

		Expect(ok).To(BeFalse())
	})

	It("should age untouched lines on a visit", func() {
		c.Visit(7, 1)
		c.Visit(7, 3)

		set := c.Set(7)
		Expect(set.Lines[0].LastUsed).To(Equal(uint64(2)))
		Expect(set.Lines[1].LastUsed).To(Equal(uint64(1)))
		Expect(set.Lines[2].LastUsed).To(Equal(uint64(2)))
		Expect(set.Lines[3].LastUsed).To(Equal(uint64(0)))
	})

	It("should leave exactly one zero-recency line after each visit", func() {
		c.Visit(7, 0)
		c.Visit(7, 2)
		c.Visit(7, 0)

		set := c.Set(7)
		zeros := 0
		for _, line := range set.Lines {
			if line.LastUsed == 0 {
				zeros++
			}
		}

		Expect(zeros).To(Equal(1))
		Expect(set.Lines[0].LastUsed).To(Equal(uint64(0)))
	})
})
