package estimator

type regressor interface {
	predict(x []float64) float64
}

type linearRegressor struct {
	intercept float64
	coef      []float64
}

func (r *linearRegressor) predict(x []float64) float64 {
	sum := r.intercept
	for i, c := range r.coef {
		sum += c * x[i]
	}
	return sum
}

// ensembleRegressor covers both boosting (base + lr * sum) and
// bagging (mean of trees).
type ensembleRegressor struct {
	baseScore    float64
	learningRate float64
	average      bool
	trees        []Tree
}

func (r *ensembleRegressor) predict(x []float64) float64 {
	var sum float64
	for _, t := range r.trees {
		sum += t.leafValue(x)
	}
	if r.average {
		return sum / float64(len(r.trees))
	}
	return r.baseScore + r.learningRate*sum
}

// leafValue walks a validated tree. Children always sit after their parent,
// so the loop ends within len(Nodes) steps.
func (t Tree) leafValue(x []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func newRegressor(a *Artifact) regressor {
	switch a.Estimator {
	case KindLinear:
		return &linearRegressor{
			intercept: a.Linear.Intercept,
			coef:      append([]float64(nil), a.Linear.Coefficients...),
		}
	case KindRandomForest:
		return &ensembleRegressor{
			average: true,
			trees:   a.Ensemble.Trees,
		}
	default:
		return &ensembleRegressor{
			baseScore:    a.Ensemble.BaseScore,
			learningRate: a.Ensemble.LearningRate,
			trees:        a.Ensemble.Trees,
		}
	}
}
