package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is one ledger row as it appears in the export.
type Record struct {
	Tenant   string
	Property string
	Amount   int64
	Status   string
	DueDate  string
	PaidDate string
}

type Summary struct {
	TotalDue       int64
	TotalPaid      int64
	TotalPending   int64
	TotalOverdue   int64
	CollectionRate int
}

// BuildSummary totals the records. Collection rate is paid over due, rounded,
// zero when there is nothing due.
func BuildSummary(records []Record) Summary {
	var s Summary
	for _, r := range records {
		s.TotalDue += r.Amount
		switch r.Status {
		case "paid":
			s.TotalPaid += r.Amount
		case "pending":
			s.TotalPending += r.Amount
		case "overdue":
			s.TotalOverdue += r.Amount
		}
	}
	if s.TotalDue > 0 {
		s.CollectionRate = int(float64(s.TotalPaid)/float64(s.TotalDue)*100 + 0.5)
	}
	return s
}

// Column widths of the RCD table.
const (
	tenantWidth   = 20
	propertyWidth = 25
	amountWidth   = 12
	statusWidth   = 10
	dateWidth     = 12
)

// pad truncates values longer than width so the columns always line up.
// Widths count runes, not bytes, so accented names neither skew the table
// nor get cut mid-rune.
func pad(value string, width int) string {
	runes := []rune(value)
	if len(runes) > width {
		return string(runes[:width])
	}
	return value + strings.Repeat(" ", width-len(runes))
}

// Export renders the fixed-width Rental Collection Data report. Pure; the
// caller decides where the text goes.
func Export(records []Record, summary Summary, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString("RENTAL COLLECTION DATA (RCD) EXPORT\n")
	b.WriteString("=====================================\n\n")
	fmt.Fprintf(&b, "Export Date: %s\n", generatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total Records: %d\n\n", len(records))

	b.WriteString("SUMMARY\n")
	fmt.Fprintf(&b, "Total Expected: GHS %d\n", summary.TotalDue)
	fmt.Fprintf(&b, "Total Collected: GHS %d\n", summary.TotalPaid)
	fmt.Fprintf(&b, "Pending: GHS %d\n", summary.TotalPending)
	fmt.Fprintf(&b, "Overdue: GHS %d\n", summary.TotalOverdue)
	fmt.Fprintf(&b, "Collection Rate: %d%%\n\n", summary.CollectionRate)

	b.WriteString("DETAILED RECORDS\n")
	b.WriteString(strings.Repeat("=", 100) + "\n")
	fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
		pad("Tenant", tenantWidth),
		pad("Property", propertyWidth),
		pad("Amount", amountWidth),
		pad("Status", statusWidth),
		pad("Due Date", dateWidth),
		pad("Paid Date", dateWidth),
	)
	b.WriteString(strings.Repeat("-", 100) + "\n")

	for _, r := range records {
		paid := r.PaidDate
		if paid == "" {
			paid = "N/A"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
			pad(r.Tenant, tenantWidth),
			pad(r.Property, propertyWidth),
			pad(fmt.Sprintf("GHS %d", r.Amount), amountWidth),
			pad(r.Status, statusWidth),
			pad(r.DueDate, dateWidth),
			pad(paid, dateWidth),
		)
	}
	return b.String()
}

// Saver is the local file-save side effect, kept behind an interface so the
// exporter stays testable.
type Saver interface {
	Save(filename, content string) error
}

type FileSaver struct {
	Dir string
}

func (s FileSaver) Save(filename, content string) error {
	return os.WriteFile(filepath.Join(s.Dir, filename), []byte(content), 0o644)
}

// ExportTo renders the report and hands it to the saver under a timestamped
// RCD file name.
func ExportTo(saver Saver, records []Record, generatedAt time.Time) (string, error) {
	content := Export(records, BuildSummary(records), generatedAt)
	name := fmt.Sprintf("RCD_Export_%d.txt", generatedAt.Unix())
	if err := saver.Save(name, content); err != nil {
		return "", err
	}
	return name, nil
}
