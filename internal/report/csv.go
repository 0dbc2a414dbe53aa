package report

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/wonny/swingscan/internal/contracts"
)

// csvRow is one ranked stock as exported for spreadsheets
type csvRow struct {
	Rank        int     `csv:"Rank"`
	Ticker      string  `csv:"Ticker"`
	Name        string  `csv:"Name"`
	Sector      string  `csv:"Sector"`
	SectorPct   float64 `csv:"Sector Performance %"`
	Price       float64 `csv:"Current Price"`
	YearHigh    float64 `csv:"52-Week High"`
	ATH         float64 `csv:"All-Time High"`
	PctBelowATH float64 `csv:"% Below ATH"`
	TargetPrice float64 `csv:"Target Price"`
	UpsidePct   float64 `csv:"Potential Upside %"`
	Score       float64 `csv:"Conviction Score"`
}

// WriteCSV writes ranked stocks with a header row, in rank order
func WriteCSV(w io.Writer, stocks []contracts.RankedStock) error {
	rows := make([]*csvRow, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, &csvRow{
			Rank:        s.Rank,
			Ticker:      s.Symbol,
			Name:        s.Name,
			Sector:      s.Sector,
			SectorPct:   s.SectorChangePct,
			Price:       s.Price,
			YearHigh:    s.YearHigh,
			ATH:         s.ATH,
			PctBelowATH: s.PctBelowATH,
			TargetPrice: s.TargetPrice,
			UpsidePct:   s.UpsidePct,
			Score:       s.Score,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSVFilename is the download name for a CSV produced on day
func CSVFilename(day time.Time) string {
	return fmt.Sprintf("swing_scan_%s.csv", day.Format("20060102"))
}
