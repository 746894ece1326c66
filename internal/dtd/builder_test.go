package dtd_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rprocfit/internal/dtd"
)

var grid = dtd.Grid{1e-4, 5e-4, 1e-3}

func expectIndependentSlots(table *dtd.Table, n int) {
	Expect(table.Sources).To(HaveLen(1))
	Expect(table.Sources[0]).To(HaveLen(n))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			Expect(&table.Sources[0][i][0]).NotTo(BeIdenticalTo(&table.Sources[0][j][0]))
		}
	}
	table.Sources[0][0][1].Rate = 42
	for j := 1; j < n; j++ {
		Expect(table.Sources[0][j][1].Rate).NotTo(Equal(42.0))
	}
}

func expectWellFormed(c dtd.Curve) {
	Expect(c).NotTo(BeEmpty())
	Expect(c[0].Rate).To(Equal(0.0))
	for i := 1; i < len(c); i++ {
		Expect(c[i].T).To(BeNumerically(">=", c[i-1].T))
		Expect(c[i].Rate).To(BeNumerically(">=", 0))
	}
}

var _ = Describe("BuildPrompt", func() {
	It("replicates one independent curve per metallicity", func() {
		table, err := dtd.BuildPrompt(grid, dtd.Window{Start: 3e6, Stop: 3e8}, 12e9)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Grid).To(Equal(grid))
		expectIndependentSlots(table, len(grid))
	})

	It("shapes a single flat window", func() {
		table, err := dtd.BuildPrompt(grid, dtd.Window{Start: 3.0e6, Stop: 3.0e8}, 12.0e9)
		Expect(err).NotTo(HaveOccurred())
		c, err := table.Curve(0, 0)
		Expect(err).NotTo(HaveOccurred())
		expectWellFormed(c)

		Expect(c).To(HaveLen(6))
		Expect(c.Rate(0)).To(Equal(0.0))
		Expect(c[2].Rate).To(Equal(1.0))
		Expect(c[2].T).To(BeNumerically(">", 3.0e6))
		Expect(c[2].T).To(BeNumerically("<", 3.0001e6))
		Expect(c.Rate(3.0e8)).To(Equal(1.0))
		Expect(c[4].Rate).To(Equal(0.0))
		Expect(c[4].T).To(BeNumerically(">", 3.0e8))
		Expect(c[4].T).To(BeNumerically("<", 3.0003e8))
		Expect(c.Rate(12.0e9)).To(Equal(0.0))
		Expect(c.End()).To(Equal(12.0e9))
	})

	DescribeTable("rejects bad input",
		func(g dtd.Grid, w dtd.Window, tEnd float64, want error) {
			_, err := dtd.BuildPrompt(g, w, tEnd)
			Expect(err).To(MatchError(want))
		},
		Entry("start after stop", grid, dtd.Window{Start: 5.0e8, Stop: 3.0e8}, 12e9, dtd.ErrInvalidWindow),
		Entry("start equals stop", grid, dtd.Window{Start: 3e8, Stop: 3e8}, 12e9, dtd.ErrInvalidWindow),
		Entry("stop after end", grid, dtd.Window{Start: 3e6, Stop: 13e9}, 12e9, dtd.ErrInvalidWindow),
		Entry("non-positive start", grid, dtd.Window{Start: 0, Stop: 3e8}, 12e9, dtd.ErrInvalidWindow),
		Entry("empty grid", dtd.Grid{}, dtd.Window{Start: 3e6, Stop: 3e8}, 12e9, dtd.ErrEmptyGrid),
		Entry("NaN start", grid, dtd.Window{Start: math.NaN(), Stop: 3e8}, 12e9, dtd.ErrInvalidWindow),
		Entry("NaN stop", grid, dtd.Window{Start: 3e6, Stop: math.NaN()}, 12e9, dtd.ErrInvalidWindow),
		Entry("NaN end", grid, dtd.Window{Start: 3e6, Stop: 3e8}, math.NaN(), dtd.ErrInvalidWindow),
		Entry("infinite end", grid, dtd.Window{Start: 3e6, Stop: 3e8}, math.Inf(1), dtd.ErrInvalidWindow),
	)
})

var _ = Describe("BuildStochastic", func() {
	It("produces the reference spike for one event", func() {
		table, err := dtd.BuildStochastic(grid, []float64{1.0e8}, 2.0e7, 13.0e9)
		Expect(err).NotTo(HaveOccurred())
		expectIndependentSlots(table, len(grid))

		c, _ := table.Curve(0, 2)
		Expect(c).To(Equal(dtd.Curve{
			{T: 0, Rate: 0},
			{T: 0.9e8, Rate: 0},
			{T: 0.9e8, Rate: 1},
			{T: 1.1e8, Rate: 1},
			{T: 1.2e8, Rate: 0},
			{T: 13.0e9, Rate: 0},
		}))
	})

	It("sorts unordered events and separates distant spikes with zero gaps", func() {
		table, err := dtd.BuildStochastic(grid, []float64{5e8, 1e8}, 2e7, 13e9)
		Expect(err).NotTo(HaveOccurred())
		c, _ := table.Curve(0, 0)
		expectWellFormed(c)
		Expect(c.Rate(3e8)).To(Equal(0.0))
		Expect(c.Rate(1e8)).To(Equal(1.0))
		Expect(c.Rate(5e8)).To(Equal(1.0))
	})

	It("merges events closer than the width into one elevated region", func() {
		table, err := dtd.BuildStochastic(dtd.Grid{1e-3}, []float64{1.0e8, 1.1e8}, 2.0e7, 13e9)
		Expect(err).NotTo(HaveOccurred())
		c, _ := table.Curve(0, 0)
		expectWellFormed(c)

		first, last := -1, -1
		for i, p := range c {
			if p.Rate == 1 {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		for i := first; i <= last; i++ {
			Expect(c[i].Rate).To(Equal(1.0), "point %d inside the merged region", i)
		}
		Expect(c[last].T).To(Equal(1.2e8))
		Expect(c[last+1]).To(Equal(dtd.Point{T: 1.3e8, Rate: 0}))
	})

	It("starts at the origin when the first spike would begin before zero", func() {
		table, err := dtd.BuildStochastic(dtd.Grid{1e-3}, []float64{5e6}, 2e7, 13e9)
		Expect(err).NotTo(HaveOccurred())
		c, _ := table.Curve(0, 0)
		expectWellFormed(c)
		Expect(c[1]).To(Equal(dtd.Point{T: 0, Rate: 1}))
	})

	DescribeTable("rejects bad input",
		func(g dtd.Grid, events []float64, width float64, want error) {
			_, err := dtd.BuildStochastic(g, events, width, 13e9)
			Expect(err).To(MatchError(want))
		},
		Entry("empty grid", dtd.Grid{}, []float64{1e8}, 2e7, dtd.ErrEmptyGrid),
		Entry("no events", grid, nil, 2e7, dtd.ErrEmptyEvents),
		Entry("zero width", grid, []float64{1e8}, 0.0, dtd.ErrNonPositiveWidth),
		Entry("negative width", grid, []float64{1e8}, -1.0, dtd.ErrNonPositiveWidth),
		Entry("negative event", grid, []float64{-1e8}, 2e7, dtd.ErrInvalidWindow),
		Entry("event past end", grid, []float64{12.99e9}, 2e7, dtd.ErrInvalidWindow),
		Entry("NaN event", grid, []float64{math.NaN(), 1e8}, 2e7, dtd.ErrInvalidWindow),
		Entry("infinite event", grid, []float64{1e8, math.Inf(1)}, 2e7, dtd.ErrInvalidWindow),
		Entry("NaN width", grid, []float64{1e8}, math.NaN(), dtd.ErrNonPositiveWidth),
	)

	It("rejects a NaN end time", func() {
		_, err := dtd.BuildStochastic(grid, []float64{1e8}, 2e7, math.NaN())
		Expect(err).To(MatchError(dtd.ErrInvalidWindow))
	})
})

var _ = Describe("Table", func() {
	It("renders the nested engine layout without sharing memory", func() {
		table, err := dtd.BuildPrompt(dtd.Grid{1e-4, 1e-3}, dtd.Window{Start: 3e6, Stop: 3e8}, 13e9)
		Expect(err).NotTo(HaveOccurred())

		nested := table.Nested()
		Expect(nested).To(HaveLen(1))
		Expect(nested[0]).To(HaveLen(2))
		Expect(nested[0][1][0]).To(Equal([2]float64{0, 0}))
		Expect(nested[0][1][5]).To(Equal([2]float64{13e9, 0}))

		nested[0][0][3][1] = 7
		Expect(table.Sources[0][0][3].Rate).To(Equal(1.0))
		Expect(table.Validate()).To(Succeed())
	})

	It("reports malformed curves", func() {
		table := &dtd.Table{
			Grid:    dtd.Grid{1e-3},
			Sources: [][]dtd.Curve{{{{T: 0, Rate: 1}, {T: 1, Rate: 0}}}},
		}
		Expect(table.Validate()).To(MatchError(dtd.ErrMalformedCurve))

		table.Sources[0][0] = dtd.Curve{{T: 0, Rate: 0}, {T: 2, Rate: 1}, {T: 1, Rate: 0}}
		Expect(table.Validate()).To(MatchError(dtd.ErrMalformedCurve))

		_, err := table.Curve(1, 0)
		Expect(err).To(HaveOccurred())
	})
})
