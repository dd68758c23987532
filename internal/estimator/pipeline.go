package estimator

import (
	"context"
	"fmt"
	"math"
	"os"

	"houseprice/internal/model"
)

// Predictor scores a single house. Implementations are safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, h model.HouseFeatures) (float64, error)
	Info() Info
}

// Info describes the loaded model
type Info struct {
	Name            string   `json:"name"`
	Estimator       string   `json:"estimator"`
	TargetTransform string   `json:"target_transform"`
	Features        []string `json:"features"`
	Neighborhoods   []string `json:"neighborhoods"`
	Trees           int      `json:"trees,omitempty"`
}

// Pipeline is an immutable encoder + regressor pair built from an artifact
type Pipeline struct {
	info      Info
	encoder   *Encoder
	regressor regressor
	transform string
}

// Ensure Pipeline implements Predictor
var _ Predictor = (*Pipeline)(nil)

// NewPipeline builds a pipeline from a validated artifact
func NewPipeline(a *Artifact) *Pipeline {
	enc := newEncoder(a)
	info := Info{
		Name:            a.Name,
		Estimator:       a.Estimator,
		TargetTransform: a.TargetTransform,
		Features:        append([]string(nil), a.Features...),
		Neighborhoods:   enc.Categories(),
	}
	if a.Ensemble != nil {
		info.Trees = len(a.Ensemble.Trees)
	}
	return &Pipeline{
		info:      info,
		encoder:   enc,
		regressor: newRegressor(a),
		transform: a.TargetTransform,
	}
}

// Predict encodes the row and returns the model output in price units
func (p *Pipeline) Predict(ctx context.Context, h model.HouseFeatures) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x, err := p.encoder.Encode(h)
	if err != nil {
		return 0, err
	}

	y := p.regressor.predict(x)
	if p.transform == TransformLog1p {
		y = math.Expm1(y)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("model produced a non-finite prediction")
	}
	return y, nil
}

// Info returns a copy of the model description
func (p *Pipeline) Info() Info {
	info := p.info
	info.Features = append([]string(nil), p.info.Features...)
	info.Neighborhoods = append([]string(nil), p.info.Neighborhoods...)
	return info
}

// LoadBytes parses and validates an artifact and builds its pipeline
func LoadBytes(data []byte) (*Pipeline, error) {
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, err
	}
	return NewPipeline(a), nil
}

// LoadFile reads the artifact at path
func LoadFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}
	p, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ArtifactStore fetches raw artifact bytes by model name
type ArtifactStore interface {
	FetchArtifact(ctx context.Context, name string) ([]byte, error)
}

// LoadFromStore fetches the named artifact from store
func LoadFromStore(ctx context.Context, store ArtifactStore, name string) (*Pipeline, error) {
	data, err := store.FetchArtifact(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model artifact %q: %w", name, err)
	}
	p, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	return p, nil
}
