package receipt

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

// Renderer produces PDF registration receipts with a scannable code that
// encodes the registration identifier.
type Renderer struct {
	eventName  string
	eventDate  string
	eventVenue string
}

// New constructs a Renderer with the event details printed on receipts.
func New(eventName, eventDate, eventVenue string) Renderer {
	return Renderer{eventName: eventName, eventDate: eventDate, eventVenue: eventVenue}
}

// Filename returns the download name for a receipt.
func (r Renderer) Filename(registrationID string) string {
	return fmt.Sprintf("MathFlow-Receipt-%s.pdf", registrationID)
}

// Render produces the receipt PDF for a persisted team. Members are printed
// in the order given, which read paths keep leader-first.
func (r Renderer) Render(team domain.Team) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.eventName+" Registration Receipt", false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, r.eventName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Team Registration Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// QR on the right, the detail block alongside it.
	if png, err := qrcode.Encode(team.RegistrationID, qrcode.Medium, 256); err == nil {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("registration-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("registration-qr", 160, 38, 34, 34, false, opts, 0, "")
	}

	r.detailRow(pdf, "Registration ID", team.RegistrationID)
	r.detailRow(pdf, "Team Name", team.TeamName)
	r.detailRow(pdf, "Department", team.Department)
	r.detailRow(pdf, "Leader Email", team.LeaderEmail)
	r.detailRow(pdf, "Leader Phone", team.LeaderPhone)
	r.detailRow(pdf, "Status", string(team.Status))
	r.detailRow(pdf, "Registered At", team.CreatedAt.Format("January 2, 2006 3:04 PM MST"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Team Members", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 240)
	headers := []struct {
		label string
		width float64
	}{
		{"#", 8},
		{"Name", 52},
		{"Roll No", 28},
		{"Year", 22},
		{"Email", 70},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 8, h.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, m := range team.Members {
		name := m.Name
		if m.IsLeader {
			name += " (Leader)"
		}
		pdf.CellFormat(8, 8, fmt.Sprintf("%d", i+1), "1", 0, "L", false, 0, "")
		pdf.CellFormat(52, 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 8, m.RollNo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 8, m.Year, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 8, m.Email, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Event", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, r.eventDate, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, r.eventVenue, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(110, 110, 120)
	pdf.MultiCell(0, 5, "Carry this receipt and a valid college ID card on event day. "+
		"The QR code above encodes your registration ID for check-in.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", team.RegistrationID, err)
	}
	return buf.Bytes(), nil
}

func (r Renderer) detailRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(100, 7, value, "", 1, "L", false, 0, "")
}
