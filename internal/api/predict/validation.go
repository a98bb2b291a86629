// internal/api/predict/validation.go
package predict

import (
	"loan-approval-api/internal/common/validation"
	"loan-approval-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// applicationSchema guards the numeric ranges and presence of every
// feature field. Categorical values are only checked for presence here;
// vocabulary membership is the encoder's concern and fails with the
// accepted values attached.
var applicationSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"name":                 {Type: "string", MaxLength: intPtr(128)},
		"annual_income":        {Type: "number", Minimum: floatPtr(0)},
		"debt_to_income_ratio": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(100)},
		"credit_score":         {Type: "number", Minimum: floatPtr(300), Maximum: floatPtr(850)},
		"loan_amount":          {Type: "number", Minimum: floatPtr(0)},
		"interest_rate":        {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(50)},
		"gender":               {Type: "string", MinLength: intPtr(1)},
		"marital_status":       {Type: "string", MinLength: intPtr(1)},
		"education_level":      {Type: "string", MinLength: intPtr(1)},
		"employment_status":    {Type: "string", MinLength: intPtr(1)},
		"loan_purpose":         {Type: "string", MinLength: intPtr(1)},
		"grade_subgrade":       {Type: "string", MinLength: intPtr(1)},
	},
	Required: []string{
		"annual_income", "debt_to_income_ratio", "credit_score",
		"loan_amount", "interest_rate", "gender", "marital_status",
		"education_level", "employment_status", "loan_purpose", "grade_subgrade",
	},
	AdditionalProperties: false,
}

// validateApplication reruns the schema over an already-typed application,
// used for CSV rows that never went through JSON binding.
func validateApplication(app *models.LoanApplication) *validation.ValidationResult {
	input := map[string]interface{}{
		"annual_income":        app.AnnualIncome,
		"debt_to_income_ratio": app.DebtToIncomeRatio,
		"credit_score":         app.CreditScore,
		"loan_amount":          app.LoanAmount,
		"interest_rate":        app.InterestRate,
		"gender":               app.Gender,
		"marital_status":       app.MaritalStatus,
		"education_level":      app.EducationLevel,
		"employment_status":    app.EmploymentStatus,
		"loan_purpose":         app.LoanPurpose,
		"grade_subgrade":       app.GradeSubgrade,
	}
	if app.Name != "" {
		input["name"] = app.Name
	}
	return validation.ValidateInput(input, applicationSchema)
}
