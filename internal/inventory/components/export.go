package components

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"robostock-backend/internal/platform/apperr"
)

// CSV encodings accepted by ExportCSV.
const (
	EncodingUTF8     = "utf8"
	EncodingShiftJIS = "sjis"
)

var exportHeader = []string{
	"component_id", "serial_number", "name", "category", "quantity",
	"location", "box_number", "description", "datasheet_link", "last_updated",
}

func encoderFor(name string) (*encoding.Encoder, error) {
	switch name {
	case "", EncodingUTF8:
		// Excel は BOM が無いと UTF-8 を判別できない
		return unicode.UTF8BOM.NewEncoder(), nil
	case EncodingShiftJIS, "cp932":
		return encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()), nil
	}
	return nil, apperr.Invalid("encoding must be utf8 or sjis")
}

// ExportCSV writes every component matching query as CSV in the given encoding.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, query, enc string) error {
	e, err := encoderFor(enc)
	if err != nil {
		return err
	}
	items, _, err := s.repo.List(ctx, query, Page{})
	if err != nil {
		return err
	}

	tw := transform.NewWriter(w, e)
	cw := csv.NewWriter(tw)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range items {
		rec := []string{
			strconv.FormatInt(c.ID, 10),
			c.SerialNumber,
			c.Name,
			c.CategoryName,
			strconv.Itoa(c.Quantity),
			c.Location,
			c.BoxNumber.String,
			c.Description,
			c.DatasheetLink,
			c.LastUpdated.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}
