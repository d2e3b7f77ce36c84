package services

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/utils"
)

// RenderReceiptPDF writes an 80mm till-roll receipt. The receipt should be
// loaded with its session, package, cashier and payments.
func RenderReceiptPDF(w io.Writer, r *models.Receipt, restaurantName string) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: 80, Ht: 220},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(true, 5)
	pdf.SetTitle("Receipt "+r.ReceiptNumber, false)
	pdf.SetCreationDate(r.CreatedAt)
	pdf.AddPage()

	const width = 70.0
	line := func(label, value string) {
		pdf.CellFormat(width*0.6, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(width*0.4, 5, value, "", 1, "R", false, 0, "")
	}
	rule := func() {
		y := pdf.GetY() + 1
		pdf.Line(5, y, 5+width, y)
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(width, 6, restaurantName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(width, 4, r.ReceiptNumber, "", 1, "C", false, 0, "")
	pdf.CellFormat(width, 4, r.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")
	rule()

	if r.Session != nil {
		line("Table", r.Session.Table.TableNumber)
		line("Package", r.Session.Package.Name)
	}
	if r.Cashier != nil {
		line("Cashier", r.Cashier.Name)
	}
	rule()

	if r.Session != nil {
		pkg := r.Session.Package
		line(fmt.Sprintf("Adult x %d @ %s", r.AdultCount, utils.FormatAmount(pkg.AdultPrice)), "")
		line(fmt.Sprintf("Child x %d @ %s", r.ChildCount, utils.FormatAmount(pkg.ChildPrice)), "")
	}
	line("Subtotal", utils.FormatAmount(r.Subtotal))
	line(fmt.Sprintf("Service charge %s%%", r.ServiceChargePercent.String()), utils.FormatAmount(r.ServiceCharge))
	line(fmt.Sprintf("VAT %s%%", r.VATPercent.String()), utils.FormatAmount(r.VAT))
	if r.DiscountAmount.IsPositive() {
		line("Discount", "-"+utils.FormatAmount(r.DiscountAmount))
	}
	if r.PointsUsed > 0 {
		line(fmt.Sprintf("Points (%d)", r.PointsUsed), "-"+utils.FormatAmount(r.PointsValue))
	}
	rule()

	pdf.SetFont("Helvetica", "B", 10)
	line("TOTAL (THB)", utils.FormatAmount(r.GrandTotal))
	pdf.SetFont("Helvetica", "", 8)
	for _, p := range r.Payments {
		line(p.Method, utils.FormatAmount(p.Amount))
	}

	if r.Member != nil {
		rule()
		line("Member", r.Member.Name)
		line("Points earned", fmt.Sprintf("%d", r.PointsEarned))
	}

	pdf.Ln(4)
	pdf.CellFormat(width, 4, "Thank you", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render receipt pdf: %w", err)
	}
	return nil
}
