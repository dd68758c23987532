package estimator

import (
	"errors"
	"fmt"

	"houseprice/internal/model"
	"houseprice/internal/utils"
)

// ErrUnknownCategory is returned when the artifact refuses unseen categories
var ErrUnknownCategory = errors.New("unknown category")

// Encoder turns a HouseFeatures row into the regressor's input vector:
// scaled numerics in training order followed by a one-hot block.
type Encoder struct {
	means         []float64
	scales        []float64
	categories    []string
	index         map[string]int
	handleUnknown string
}

func newEncoder(a *Artifact) *Encoder {
	e := &Encoder{
		means:  make([]float64, len(model.NumericColumns)),
		scales: make([]float64, len(model.NumericColumns)),
	}
	for i, name := range model.NumericColumns {
		s := a.Numeric[name]
		e.means[i] = s.Mean
		e.scales[i] = s.Scale
		if s.Scale == 0 {
			// constant column during training
			e.scales[i] = 1
		}
	}

	coding := a.Categorical[model.FieldNeighborhood]
	e.categories = append([]string(nil), coding.Categories...)
	e.index = make(map[string]int, len(coding.Categories))
	for i, c := range coding.Categories {
		e.index[c] = i
	}
	e.handleUnknown = coding.HandleUnknown
	if e.handleUnknown == "" {
		e.handleUnknown = UnknownIgnore
	}
	return e
}

// Width is the length of an encoded vector
func (e *Encoder) Width() int {
	return len(e.means) + len(e.categories)
}

// Encode builds the input vector for one row
func (e *Encoder) Encode(h model.HouseFeatures) ([]float64, error) {
	x := make([]float64, e.Width())
	for i, v := range h.Numeric() {
		x[i] = (v - e.means[i]) / e.scales[i]
	}

	idx, ok := e.index[h.Neighborhood]
	if !ok {
		if e.handleUnknown == UnknownError {
			if hint, found := utils.ClosestMatch(h.Neighborhood, e.categories); found {
				return nil, fmt.Errorf("%w %q in column %s (did you mean %q?)", ErrUnknownCategory, h.Neighborhood, model.FieldNeighborhood, hint)
			}
			return nil, fmt.Errorf("%w %q in column %s", ErrUnknownCategory, h.Neighborhood, model.FieldNeighborhood)
		}
		return x, nil
	}
	x[len(e.means)+idx] = 1
	return x, nil
}

// Categories returns the known categorical values in training order
func (e *Encoder) Categories() []string {
	return append([]string(nil), e.categories...)
}
