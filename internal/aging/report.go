package aging

import (
	"time"

	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

type Row struct {
	InvoiceID     string               `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	ClientID      string               `json:"client_id"`
	ClientName    string               `json:"client_name"`
	DueDate       time.Time            `json:"due_date"`
	AgeDays       int                  `json:"age_days"`
	SignedAgeDays int                  `json:"signed_age_days"`
	Bucket        Bucket               `json:"bucket"`
	Balance       decimal.Decimal      `json:"balance"`
	Status        domain.InvoiceStatus `json:"status"`
}

type Report struct {
	AsOf     time.Time                  `json:"as_of"`
	Rows     []Row                      `json:"rows"`
	ByBucket map[Bucket]decimal.Decimal `json:"by_bucket"`
	Total    decimal.Decimal            `json:"total"`
}

// BuildReport ages every invoice against today, in input order.
func BuildReport(invoices []domain.Invoice, today time.Time) Report {
	report := Report{
		AsOf: civilDay(today),
		Rows: make([]Row, 0, len(invoices)),
		ByBucket: map[Bucket]decimal.Decimal{
			BucketNormal:   decimal.Zero,
			BucketWarn:     decimal.Zero,
			BucketCritical: decimal.Zero,
		},
		Total: TotalOutstanding(invoices),
	}

	for _, inv := range invoices {
		age := AgeInDays(inv.DueDate, today)
		bucket := BucketFor(age)

		clientName := ""
		if inv.Client != nil {
			clientName = inv.Client.Name
		}

		report.Rows = append(report.Rows, Row{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			ClientName:    clientName,
			DueDate:       inv.DueDate,
			AgeDays:       age,
			SignedAgeDays: SignedAgeInDays(inv.DueDate, today),
			Bucket:        bucket,
			Balance:       inv.Balance,
			Status:        inv.Status,
		})
		report.ByBucket[bucket] = report.ByBucket[bucket].Add(inv.Balance)
	}
	return report
}
