// internal/api/predict/csv.go
package predict

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loan-approval-api/internal/models"
)

// maxBatchRows bounds one upload so a runaway file cannot occupy the
// server indefinitely.
const maxBatchRows = 10000

// requiredColumns are the CSV columns every upload must carry, named after
// the application JSON fields. A "name" column is optional.
var requiredColumns = []string{
	"annual_income", "debt_to_income_ratio", "credit_score",
	"loan_amount", "interest_rate", "gender", "marital_status",
	"education_level", "employment_status", "loan_purpose", "grade_subgrade",
}

// Row is one parsed CSV line. Err is set when the line could not be turned
// into an application; such rows still occupy their position in the batch.
type Row struct {
	Line int
	App  *models.LoanApplication
	Err  error
}

// ParseApplications reads a CSV with a header naming the application fields
// and returns one Row per data line. A missing required column fails the
// whole parse; a malformed cell fails only its row.
func ParseApplications(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var rows []Row
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rows = append(rows, Row{Line: line, Err: fmt.Errorf("malformed line: %v", err)})
			continue
		}
		if line > maxBatchRows {
			return nil, fmt.Errorf("batch exceeds %d rows", maxBatchRows)
		}

		app, err := rowToApplication(columns, record)
		rows = append(rows, Row{Line: line, App: app, Err: err})
	}
	return rows, nil
}

func rowToApplication(columns map[string]int, record []string) (*models.LoanApplication, error) {
	cell := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	number := func(col string) (float64, error) {
		raw := cell(col)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not a number", col, raw)
		}
		return v, nil
	}

	app := &models.LoanApplication{
		Name:             cell("name"),
		Gender:           cell("gender"),
		MaritalStatus:    cell("marital_status"),
		EducationLevel:   cell("education_level"),
		EmploymentStatus: cell("employment_status"),
		LoanPurpose:      cell("loan_purpose"),
		GradeSubgrade:    cell("grade_subgrade"),
	}

	var err error
	if app.AnnualIncome, err = number("annual_income"); err != nil {
		return nil, err
	}
	if app.DebtToIncomeRatio, err = number("debt_to_income_ratio"); err != nil {
		return nil, err
	}
	if app.CreditScore, err = number("credit_score"); err != nil {
		return nil, err
	}
	if app.LoanAmount, err = number("loan_amount"); err != nil {
		return nil, err
	}
	if app.InterestRate, err = number("interest_rate"); err != nil {
		return nil, err
	}
	return app, nil
}
