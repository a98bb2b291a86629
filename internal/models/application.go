package models

// LoanApplication is a single applicant record, one prediction request.
// All eleven feature fields must be present before assembly; Name is only
// persisted for display and never enters the feature vector.
type LoanApplication struct {
	Name              string  `json:"name,omitempty"`
	AnnualIncome      float64 `json:"annual_income"`
	DebtToIncomeRatio float64 `json:"debt_to_income_ratio"`
	CreditScore       float64 `json:"credit_score"`
	LoanAmount        float64 `json:"loan_amount"`
	InterestRate      float64 `json:"interest_rate"`
	Gender            string  `json:"gender"`
	MaritalStatus     string  `json:"marital_status"`
	EducationLevel    string  `json:"education_level"`
	EmploymentStatus  string  `json:"employment_status"`
	LoanPurpose       string  `json:"loan_purpose"`
	GradeSubgrade     string  `json:"grade_subgrade"`
}

// Categorical returns the categorical field value for a feature column.
func (a *LoanApplication) Categorical(column string) string {
	switch column {
	case "gender":
		return a.Gender
	case "marital_status":
		return a.MaritalStatus
	case "education_level":
		return a.EducationLevel
	case "employment_status":
		return a.EmploymentStatus
	case "loan_purpose":
		return a.LoanPurpose
	case "grade_subgrade":
		return a.GradeSubgrade
	}
	return ""
}

// Numeric returns the numeric field value for a feature column.
func (a *LoanApplication) Numeric(column string) float64 {
	switch column {
	case "annual_income":
		return a.AnnualIncome
	case "debt_to_income_ratio":
		return a.DebtToIncomeRatio
	case "credit_score":
		return a.CreditScore
	case "loan_amount":
		return a.LoanAmount
	case "interest_rate":
		return a.InterestRate
	}
	return 0
}
