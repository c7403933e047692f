// Package pdf renders printable documents for the admin dashboard.
package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptLine struct {
	Description string
	Date        string
	Hours       string
	Amount      string
}

type ReceiptPayment struct {
	PaidAt    string
	Method    string
	Reference string
	Amount    string
}

type ReceiptData struct {
	OrgName       string
	InvoiceNumber string
	IssueDate     string
	Status        string
	Currency      string

	GuardianName  string
	GuardianEmail string

	Lines    []ReceiptLine
	Payments []ReceiptPayment

	Subtotal    string
	TransferFee string
	Total       string
	Paid        string
	Remaining   string
}

type Renderer interface {
	RenderReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type receiptRenderer struct{}

func New() Renderer {
	return &receiptRenderer{}
}

func (r *receiptRenderer) RenderReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, data.OrgName, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "Receipt", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Status: "+data.Status, props.Text{Top: 8}),
			text.New("Currency: "+data.Currency, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(data.GuardianName, props.Text{Top: 4}),
			text.New(data.GuardianEmail, props.Text{Top: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Class", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Hours", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(6, line.Description, props.Text{Size: 9}),
			text.NewCol(2, line.Date, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Hours, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Transfer fee", props.Text{Size: 9}),
		text.NewCol(2, data.TransferFee, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Paid", props.Text{Size: 9}),
		text.NewCol(2, data.Paid, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Remaining", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Remaining, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if len(data.Payments) > 0 {
		m.AddRow(12,
			text.NewCol(12, "Payments", props.Text{Style: fontstyle.Bold, Size: 10, Top: 4}),
		)
		m.AddRow(8,
			text.NewCol(4, "Paid at", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Method", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Reference", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, payment := range data.Payments {
			m.AddRow(8,
				text.NewCol(4, payment.PaidAt, props.Text{Size: 9}),
				text.NewCol(3, payment.Method, props.Text{Size: 9}),
				text.NewCol(3, payment.Reference, props.Text{Size: 9}),
				text.NewCol(2, payment.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
