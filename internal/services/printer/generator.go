package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/millbrook-cnc/shopflow/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

// SheetConfig holds layout configuration for a bin label sheet
type SheetConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultSheetConfig fits a 2x6 grid of labels on A4
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{
		Cols:       2,
		Rows:       6,
		MarginTop:  10,
		MarginLeft: 10,
		GapX:       4,
		GapY:       4,
	}
}

// BinBarcode is the scannable content printed for a bin
func BinBarcode(bin *models.Bin) string {
	return fmt.Sprintf("p%06d", bin.ID)
}

// GenerateBinLabelsPDF creates a printable sheet of QR labels, one per
// bin, for mounting on a rack
func GenerateBinLabelsPDF(rack *models.StorageRack, bins []models.Bin, cfg SheetConfig) ([]byte, error) {
	if cfg.Cols < 1 || cfg.Rows < 1 {
		cfg = DefaultSheetConfig()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i := range bins {
		bin := &bins[i]

		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(BinBarcode(bin), qrcode.Low, 256)
		if err != nil {
			return nil, err
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}

		reader := bytes.NewReader(qrPng)
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, reader)

		// QR centered in label, taking up 70% height
		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}

		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		// Rack name and bin label below the QR
		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(10)
		pdf.CellFormat(labelW, 5, fmt.Sprintf("%s  %s", rack.Name, bin.Label), "", 0, "C", false, 0, "")

		// Coordinate top right
		pdf.SetXY(x, y+1)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, fmt.Sprintf("R%dC%d", bin.Row+1, bin.Column+1), "", 0, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
