package remittance

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Remittance lines carry nine pipe-delimited fields:
//
//	claimID|patientID|date|allowed|paid|adjustment|reasonCodes|checkNumber|payerName
//
// Dates are YYYY-MM-DD, amounts are decimals, reason codes are comma
// separated and may be empty. Blank lines and lines starting with '#'
// are skipped.
const lineFields = 9

// Parse reads remittance lines from r. Any malformed line fails the whole
// parse with a validation error naming the 1-based line number.
func Parse(r io.Reader) ([]LineItem, error) {
	var items []LineItem
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		item, err := parseLine(line)
		if err != nil {
			return nil, db.NewError(db.KindValidation, "malformed_line",
				fmt.Sprintf("line %d: %v", lineNo, err))
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading remittance data: %w", err)
	}
	return items, nil
}

func parseLine(line string) (LineItem, error) {
	fields := strings.Split(line, "|")
	if len(fields) != lineFields {
		return LineItem{}, fmt.Errorf("expected %d fields, got %d", lineFields, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	claimID, err := uuid.Parse(fields[0])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid claim id %q", fields[0])
	}
	patientID, err := uuid.Parse(fields[1])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid patient id %q", fields[1])
	}
	date, err := time.Parse("2006-01-02", fields[2])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid date %q", fields[2])
	}
	allowed, err := decimal.NewFromString(fields[3])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid allowed amount %q", fields[3])
	}
	paid, err := decimal.NewFromString(fields[4])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid paid amount %q", fields[4])
	}
	if paid.IsNegative() {
		return LineItem{}, fmt.Errorf("paid amount %s is negative", paid)
	}
	adjustment, err := decimal.NewFromString(fields[5])
	if err != nil {
		return LineItem{}, fmt.Errorf("invalid adjustment %q", fields[5])
	}

	var codes []string
	if fields[6] != "" {
		for _, c := range strings.Split(fields[6], ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
	}

	return LineItem{
		ClaimID:     claimID,
		PatientID:   patientID,
		Date:        date,
		Allowed:     allowed,
		Paid:        paid,
		Adjustment:  adjustment,
		ReasonCodes: codes,
		CheckNumber: fields[7],
		PayerName:   fields[8],
	}, nil
}
