package expense

import (
	"encoding/json"

	. "github.com/onsi/gomega"

	"github.com/zombor/billed/internal/bill"
)

// fixtureJSON mirrors what the bills store has returned in practice,
// including a VAT stored as an empty string.
const fixtureJSON = `[
  {
    "id": "47qAXb6fIm2zOKkLzMro",
    "vat": "80",
    "fileUrl": "https://test.storage.tld/v0/b/billable-677b6.a…f-1.jpg?alt=media&token=c1640e12-a24b-4b11-ae52-529112e9602a",
    "status": "pending",
    "type": "Hôtel et logement",
    "commentary": "séminaire billed",
    "name": "encore",
    "fileName": "preview-facture-free-201801-pdf-1.jpg",
    "date": "2004-04-04",
    "amount": 400,
    "commentAdmin": "ok",
    "email": "a@a",
    "pct": 20
  },
  {
    "id": "BeKy5Mo4jkmdfPGYpTxZ",
    "vat": "",
    "amount": 100,
    "name": "test1",
    "fileName": "1592770761.jpeg",
    "commentary": "plop",
    "pct": 20,
    "type": "Transports",
    "email": "a@a",
    "fileUrl": "https://test.storage.tld/v0/b/billable-677b6.a…61.jpeg?alt=media&token=7685cd61-c112-42bc-9929-8a799bb82d8b",
    "date": "2001-01-01",
    "status": "refused",
    "commentAdmin": "en fait non"
  },
  {
    "id": "UIUZtnPQvnbFnB0ozvJh",
    "name": "test3",
    "email": "a@a",
    "type": "Services en ligne",
    "vat": "60",
    "pct": 20,
    "commentAdmin": "bon bah d'accord",
    "amount": 300,
    "status": "accepted",
    "date": "2003-03-03",
    "commentary": "",
    "fileName": "facture-client-php-exemple-1.jpg",
    "fileUrl": "https://test.storage.tld/v0/b/billable-677b6.a…exemple-1.jpg?alt=media&token=4df6ed2c-12c8-42a2-b013-346c1346f732"
  },
  {
    "id": "qcCK3SzECmaZAGRrHjaC",
    "name": "test2",
    "date": "2002-02-02",
    "amount": 200,
    "vat": "40",
    "pct": 20,
    "type": "Restaurants et bars",
    "commentary": "test2",
    "status": "refused",
    "commentAdmin": "pas la bonne facture",
    "email": "a@a",
    "fileName": "preview-facture-free-201801-pdf-1.jpg",
    "fileUrl": "https://test.storage.tld/v0/b/billable-677b6.a…f-1.jpg?alt=media&token=4df6ed2c-12c8-42a2-b013-346c1346f732"
  }
]`

func fixtureBills() []bill.Bill {
	var bills []bill.Bill
	Expect(json.Unmarshal([]byte(fixtureJSON), &bills)).To(Succeed())
	return bills
}
