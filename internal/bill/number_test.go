package bill

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Number", func() {
	DescribeTable("ParseNumber",
		func(input string, expected Number) {
			n, err := ParseNumber(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(expected))
		},
		Entry("integer", "348", NewNumber(348)),
		Entry("decimal point", "12.5", NewNumber(12.5)),
		Entry("decimal comma", "12,5", NewNumber(12.5)),
		Entry("surrounding spaces", " 20 ", NewNumber(20)),
		Entry("blank", "", Number{}),
		Entry("spaces only", "   ", Number{}),
	)

	It("should reject text", func() {
		_, err := ParseNumber("douze")
		Expect(err).To(MatchError(ContainSubstring(`parsing number "douze"`)))
	})

	Describe("JSON decoding", func() {
		var decoded struct {
			VAT Number `json:"vat"`
		}

		decode := func(raw string) Number {
			decoded.VAT = NewNumber(-1)
			Expect(json.Unmarshal([]byte(raw), &decoded)).To(Succeed())
			return decoded.VAT
		}

		It("should read numbers", func() {
			Expect(decode(`{"vat": 80}`)).To(Equal(NewNumber(80)))
		})

		It("should read numeric strings", func() {
			Expect(decode(`{"vat": "80"}`)).To(Equal(NewNumber(80)))
		})

		It("should treat an empty string as absent", func() {
			Expect(decode(`{"vat": ""}`)).To(Equal(Number{}))
		})

		It("should treat null as absent", func() {
			Expect(decode(`{"vat": null}`)).To(Equal(Number{}))
		})

		It("should treat unreadable values as absent", func() {
			Expect(decode(`{"vat": "beaucoup"}`)).To(Equal(Number{}))
			Expect(decode(`{"vat": true}`)).To(Equal(Number{}))
		})
	})

	Describe("JSON encoding", func() {
		It("should write present numbers as numbers", func() {
			data, err := json.Marshal(NewNumber(12.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("12.5"))
		})

		It("should write absent numbers as null", func() {
			data, err := json.Marshal(Number{})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("null"))
		})
	})
})

var _ = Describe("Date", func() {
	decode := func(raw string) (Bill, error) {
		var b Bill
		err := json.Unmarshal([]byte(raw), &b)
		return b, err
	}

	DescribeTable("JSON decoding",
		func(raw string, expected Date) {
			b, err := decode(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Date).To(Equal(expected))
		},
		Entry("string", `{"date": "2004-04-04"}`, Date("2004-04-04")),
		Entry("malformed string", `{"date": "2024-13-45"}`, Date("2024-13-45")),
		Entry("number", `{"date": 20040404}`, Date("20040404")),
		Entry("object", `{"date": {"seconds": 1081036800}}`, Date("")),
		Entry("array", `{"date": [2004, 4, 4]}`, Date("")),
		Entry("boolean", `{"date": true}`, Date("")),
		Entry("null", `{"date": null}`, Date("")),
		Entry("missing", `{"name": "test10"}`, Date("")),
	)

	It("should keep the rest of the bill when the date is an object", func() {
		b, err := decode(`{"id": "1", "name": "encore", "date": {"seconds": 1}, "amount": 400}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.ID).To(Equal("1"))
		Expect(b.Amount).To(Equal(NewNumber(400)))
	})

	It("should encode as a plain string", func() {
		data, err := json.Marshal(Bill{Date: "2004-04-04"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"date":"2004-04-04"`))
	})
})
