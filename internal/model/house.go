package model

import "encoding/json"

// Input field names, in the column order the model was trained on.
const (
	FieldOverallQual  = "OverallQual"
	FieldGrLivArea    = "GrLivArea"
	FieldGarageCars   = "GarageCars"
	FieldTotalBsmtSF  = "TotalBsmtSF"
	FieldFullBath     = "FullBath"
	FieldYearBuilt    = "YearBuilt"
	FieldNeighborhood = "Neighborhood"
)

// FeatureColumns lists every input column in training order
var FeatureColumns = []string{
	FieldOverallQual,
	FieldGrLivArea,
	FieldGarageCars,
	FieldTotalBsmtSF,
	FieldFullBath,
	FieldYearBuilt,
	FieldNeighborhood,
}

// NumericColumns lists the numeric columns in training order
var NumericColumns = FeatureColumns[:6]

// HouseFeatures is a single row of model input
type HouseFeatures struct {
	OverallQual  float64 `json:"OverallQual"`
	GrLivArea    float64 `json:"GrLivArea"`    // above-grade living area, sqft
	GarageCars   float64 `json:"GarageCars"`   // garage capacity in cars
	TotalBsmtSF  float64 `json:"TotalBsmtSF"`  // basement area, sqft
	FullBath     float64 `json:"FullBath"`
	YearBuilt    float64 `json:"YearBuilt"`
	Neighborhood string  `json:"Neighborhood"`
}

// Numeric returns the numeric features in training order
func (h HouseFeatures) Numeric() []float64 {
	return []float64{
		h.OverallQual,
		h.GrLivArea,
		h.GarageCars,
		h.TotalBsmtSF,
		h.FullBath,
		h.YearBuilt,
	}
}

// PredictRequest is the body of POST /api/predict.
// Values stay raw so a missing key can be told apart from a zero.
type PredictRequest map[string]json.RawMessage

// PredictResponse is the success body of POST /api/predict
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// ErrorResponse is the failure body of POST /api/predict
type ErrorResponse struct {
	Error string `json:"error"`
}
