package estimator

import (
	"encoding/json"
	"fmt"
	"strings"

	"houseprice/internal/model"

	"github.com/xeipuuv/gojsonschema"
)

// Estimator kinds supported by the artifact format
const (
	KindLinear           = "linear"
	KindGradientBoosting = "gradient_boosting"
	KindRandomForest     = "random_forest"
)

// Target transforms applied to the raw regressor output
const (
	TransformNone  = "none"
	TransformLog1p = "log1p"
)

// Unknown category policies
const (
	UnknownIgnore = "ignore"
	UnknownError  = "error"
)

// Artifact is the portable export of a fitted preprocessing + regression pipeline
type Artifact struct {
	Name            string                       `json:"name"`
	Estimator       string                       `json:"estimator"`
	TargetTransform string                       `json:"target_transform,omitempty"`
	Features        []string                     `json:"features"`
	Numeric         map[string]NumericScaler     `json:"numeric"`
	Categorical     map[string]CategoricalCoding `json:"categorical"`
	Linear          *LinearParams                `json:"linear,omitempty"`
	Ensemble        *EnsembleParams              `json:"ensemble,omitempty"`
}

// NumericScaler holds standard-scaling parameters for one column
type NumericScaler struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// CategoricalCoding holds one-hot parameters for one column
type CategoricalCoding struct {
	Categories    []string `json:"categories"`
	HandleUnknown string   `json:"handle_unknown,omitempty"`
}

// LinearParams holds a fitted linear model over the encoded vector
type LinearParams struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// EnsembleParams holds a fitted tree ensemble over the encoded vector
type EnsembleParams struct {
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// Tree is a flat array of nodes; node 0 is the root
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is one split or leaf. Samples with x[Feature] <= Threshold go left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["estimator", "features", "numeric", "categorical"],
  "properties": {
    "name": {"type": "string"},
    "estimator": {"type": "string", "enum": ["linear", "gradient_boosting", "random_forest"]},
    "target_transform": {"type": "string", "enum": ["none", "log1p"]},
    "features": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "numeric": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["mean", "scale"],
        "properties": {"mean": {"type": "number"}, "scale": {"type": "number"}}
      }
    },
    "categorical": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["categories"],
        "properties": {
          "categories": {"type": "array", "items": {"type": "string"}},
          "handle_unknown": {"type": "string", "enum": ["ignore", "error"]}
        }
      }
    },
    "linear": {
      "type": "object",
      "required": ["intercept", "coefficients"],
      "properties": {
        "intercept": {"type": "number"},
        "coefficients": {"type": "array", "items": {"type": "number"}}
      }
    },
    "ensemble": {
      "type": "object",
      "required": ["trees"],
      "properties": {
        "base_score": {"type": "number"},
        "learning_rate": {"type": "number"},
        "trees": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["nodes"],
            "properties": {
              "nodes": {
                "type": "array",
                "minItems": 1,
                "items": {
                  "type": "object",
                  "properties": {
                    "feature": {"type": "integer"},
                    "threshold": {"type": "number"},
                    "left": {"type": "integer"},
                    "right": {"type": "integer"},
                    "value": {"type": "number"},
                    "leaf": {"type": "boolean"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// ParseArtifact validates raw artifact bytes and decodes them
func ParseArtifact(data []byte) (*Artifact, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("model artifact is empty")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(artifactSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile artifact schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("model artifact is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("model artifact failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if a.TargetTransform == "" {
		a.TargetTransform = TransformNone
	}

	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return &a, nil
}

// validate checks the cross-field invariants the schema cannot express
func (a *Artifact) validate() error {
	if len(a.Features) != len(model.FeatureColumns) {
		return fmt.Errorf("expected %d features, got %d", len(model.FeatureColumns), len(a.Features))
	}
	for i, name := range model.FeatureColumns {
		if a.Features[i] != name {
			return fmt.Errorf("feature %d is %q, expected %q", i, a.Features[i], name)
		}
	}

	for _, name := range model.NumericColumns {
		if _, ok := a.Numeric[name]; !ok {
			return fmt.Errorf("missing scaler for numeric feature %s", name)
		}
	}

	coding, ok := a.Categorical[model.FieldNeighborhood]
	if !ok {
		return fmt.Errorf("missing coding for categorical feature %s", model.FieldNeighborhood)
	}
	seen := make(map[string]bool, len(coding.Categories))
	for _, c := range coding.Categories {
		if seen[c] {
			return fmt.Errorf("duplicate %s category %q", model.FieldNeighborhood, c)
		}
		seen[c] = true
	}

	width := len(model.NumericColumns) + len(coding.Categories)

	switch a.Estimator {
	case KindLinear:
		if a.Linear == nil {
			return fmt.Errorf("estimator %s requires a linear section", a.Estimator)
		}
		if len(a.Linear.Coefficients) != width {
			return fmt.Errorf("expected %d coefficients, got %d", width, len(a.Linear.Coefficients))
		}
	case KindGradientBoosting, KindRandomForest:
		if a.Ensemble == nil {
			return fmt.Errorf("estimator %s requires an ensemble section", a.Estimator)
		}
		if a.Estimator == KindGradientBoosting && a.Ensemble.LearningRate <= 0 {
			return fmt.Errorf("learning_rate must be positive")
		}
		for i, tree := range a.Ensemble.Trees {
			if err := tree.validate(width); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unsupported estimator %q", a.Estimator)
	}

	return nil
}

// validate checks node references. Children must come after their parent,
// which rules out cycles and bounds every traversal by len(Nodes).
func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			continue
		}
		if node.Feature < 0 || node.Feature >= width {
			return fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, node.Feature, width)
		}
		if node.Left <= i || node.Left >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid left child %d", i, node.Left)
		}
		if node.Right <= i || node.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid right child %d", i, node.Right)
		}
	}
	return nil
}
