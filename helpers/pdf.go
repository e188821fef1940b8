package helpers

import (
	"bytes"
	"fmt"

	"bitbucket.org/vecpay/backend/models"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateReceiptPDF renders a paid invoice as a PDF receipt with a QR code
// carrying the payment reference.
func GenerateReceiptPDF(invoice *models.Invoice, client *models.User) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(120, 12, "Receipt")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 12, fmt.Sprintf("Invoice %s", invoice.ID), "", 1, "R", false, 0, "")

	if client != nil {
		pdf.Cell(0, 6, fmt.Sprintf("%s %s <%s>", client.Firstname, client.Lastname, client.Email))
		pdf.Ln(8)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Issued %s", invoice.Created.Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(100, 8, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.LineItems {
		pdf.CellFormat(100, 8, item.Description, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, FormatAmount(item.UnitPrice, invoice.Currency), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, FormatAmount(item.Total(), invoice.Currency), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(155, 10, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 10, FormatAmount(invoice.Total(), invoice.Currency), "T", 1, "R", false, 0, "")

	if invoice.PaymentID != "" {
		png, err := qrcode.Encode(invoice.PaymentID, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}
		pdf.RegisterImageOptionsReader("payment-qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		pdf.ImageOptions("payment-qr", 10, pdf.GetY()+10, 40, 40, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return &buf, nil
}
