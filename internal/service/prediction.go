package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"houseprice/internal/estimator"
	"houseprice/internal/metrics"
	"houseprice/internal/model"
	"houseprice/internal/utils"

	"go.uber.org/zap"
)

var (
	errNotNumber = errors.New("must be a number")
	errNotString = errors.New("must be a string")
)

// PredictionService turns raw request input into a model prediction
type PredictionService struct {
	predictor estimator.Predictor
	logger    *zap.Logger
}

// NewPredictionService creates a new prediction service around a loaded predictor
func NewPredictionService(predictor estimator.Predictor, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		predictor: predictor,
		logger:    logger,
	}
}

// Info describes the loaded model
func (s *PredictionService) Info() estimator.Info {
	return s.predictor.Info()
}

// Predict scores one house
func (s *PredictionService) Predict(ctx context.Context, h model.HouseFeatures) (float64, error) {
	start := time.Now()
	y, err := s.predictor.Predict(ctx, h)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("inference failed",
			zap.Error(err),
			zap.String("neighborhood", h.Neighborhood),
		)
		return 0, inferenceError(err)
	}
	return y, nil
}

// FeaturesFromForm coerces form-encoded fields into a feature row.
// The first failing field, in column order, is reported.
func (s *PredictionService) FeaturesFromForm(values url.Values) (model.HouseFeatures, error) {
	var nums [6]float64
	for i, field := range model.NumericColumns {
		raw, ok := values[field]
		if !ok || len(raw) == 0 {
			return model.HouseFeatures{}, validationError(field, ErrFieldRequired)
		}
		v, err := utils.ParseNumber(raw[0])
		if err != nil {
			if errors.Is(err, utils.ErrEmptyNumber) {
				err = ErrFieldRequired
			}
			return model.HouseFeatures{}, validationError(field, err)
		}
		nums[i] = v
	}

	neighborhood := values.Get(model.FieldNeighborhood)
	if strings.TrimSpace(neighborhood) == "" {
		return model.HouseFeatures{}, validationError(model.FieldNeighborhood, ErrFieldRequired)
	}

	return newFeatures(nums, neighborhood), nil
}

// FeaturesFromJSON coerces a decoded JSON object into a feature row.
// Numeric fields accept JSON numbers or numeric strings; unknown keys are ignored.
func (s *PredictionService) FeaturesFromJSON(req model.PredictRequest) (model.HouseFeatures, error) {
	var nums [6]float64
	for i, field := range model.NumericColumns {
		v, err := jsonNumber(req[field])
		if err != nil {
			return model.HouseFeatures{}, validationError(field, err)
		}
		nums[i] = v
	}

	neighborhood, err := jsonString(req[model.FieldNeighborhood])
	if err != nil {
		return model.HouseFeatures{}, validationError(model.FieldNeighborhood, err)
	}

	return newFeatures(nums, neighborhood), nil
}

func newFeatures(nums [6]float64, neighborhood string) model.HouseFeatures {
	return model.HouseFeatures{
		OverallQual:  nums[0],
		GrLivArea:    nums[1],
		GarageCars:   nums[2],
		TotalBsmtSF:  nums[3],
		FullBath:     nums[4],
		YearBuilt:    nums[5],
		Neighborhood: neighborhood,
	}
}

func jsonNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrFieldRequired
	}

	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, errNotNumber
		}
		v, err := utils.ParseNumber(str)
		if errors.Is(err, utils.ErrEmptyNumber) {
			return 0, ErrFieldRequired
		}
		return v, err
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errNotNumber
	}
	return v, utils.CheckFinite(v)
}

func jsonString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrFieldRequired
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return "", errNotString
	}
	if strings.TrimSpace(str) == "" {
		return "", ErrFieldRequired
	}
	return str, nil
}
