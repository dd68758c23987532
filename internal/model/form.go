package model

// FormView is the data rendered into the index page
type FormView struct {
	Prediction    *string           // formatted with exactly two decimals
	Error         string
	Values        map[string]string // echoed back into the inputs
	Neighborhoods []string
	ModelName     string
}

// HasPrediction reports whether the page should show a result
func (v FormView) HasPrediction() bool {
	return v.Prediction != nil
}
