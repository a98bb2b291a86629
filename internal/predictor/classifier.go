package predictor

import (
	"encoding/json"
	"fmt"
	"math"
)

// Classifier is a fitted model treated as an opaque black box: it predicts a
// class label and a class-probability distribution for a scaled feature
// vector. Implementations are read-only and safe for concurrent use.
type Classifier interface {
	Predict(vector []float64) (int, error)
	PredictProba(vector []float64) ([]float64, error)
	Classes() []int
}

// classifierDocument is the serialized model artifact.
type classifierDocument struct {
	ModelType string          `json:"model_type"`
	Classes   []int           `json:"classes"`
	NFeatures int             `json:"n_features"`
	Trees     []treeDocument  `json:"trees,omitempty"`
	Coef      []float64       `json:"coef,omitempty"`
	Intercept float64         `json:"intercept,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// treeDocument mirrors the sklearn tree node arrays: a node i is a leaf when
// children_left[i] < 0, otherwise samples go left when
// x[feature[i]] <= threshold[i].
type treeDocument struct {
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Value         [][]float64 `json:"value"`
}

// DecodeClassifier builds a Classifier from a serialized model artifact.
func DecodeClassifier(data []byte) (Classifier, error) {
	var doc classifierDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if len(doc.Classes) == 0 {
		return nil, fmt.Errorf("classifier artifact has no classes")
	}

	switch doc.ModelType {
	case "random_forest":
		if len(doc.Trees) == 0 {
			return nil, fmt.Errorf("random forest artifact has no trees")
		}
		for ti := range doc.Trees {
			if err := doc.Trees[ti].validate(len(doc.Classes)); err != nil {
				return nil, fmt.Errorf("tree %d: %w", ti, err)
			}
		}
		return &randomForest{classes: doc.Classes, nFeatures: doc.NFeatures, trees: doc.Trees}, nil
	case "logistic_regression":
		if len(doc.Coef) == 0 {
			return nil, fmt.Errorf("logistic regression artifact has no coefficients")
		}
		return &logisticRegression{classes: doc.Classes, coef: doc.Coef, intercept: doc.Intercept}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", doc.ModelType)
	}
}

// validate rejects trees whose node arrays disagree in length or whose leaf
// values are narrower than the class list. Indexing a shorter array by a
// node id would panic mid-walk instead of failing the load.
func (t *treeDocument) validate(nClasses int) error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.Threshold) != n || len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays disagree in length: feature=%d threshold=%d children_left=%d children_right=%d value=%d",
			n, len(t.Threshold), len(t.ChildrenLeft), len(t.ChildrenRight), len(t.Value))
	}
	for i := range t.Value {
		if len(t.Value[i]) < nClasses {
			return fmt.Errorf("node %d has %d class values, expected %d", i, len(t.Value[i]), nClasses)
		}
	}
	return nil
}

// --- Random forest ---

type randomForest struct {
	classes   []int
	nFeatures int
	trees     []treeDocument
}

func (f *randomForest) Classes() []int { return f.classes }

func (f *randomForest) PredictProba(vector []float64) ([]float64, error) {
	if f.nFeatures > 0 && len(vector) != f.nFeatures {
		return nil, fmt.Errorf("feature vector has %d columns, model expects %d", len(vector), f.nFeatures)
	}

	proba := make([]float64, len(f.classes))
	for ti := range f.trees {
		leaf, err := f.trees[ti].walk(vector)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		// Leaf values are per-class sample counts; normalize per tree then
		// average across the forest, matching sklearn's soft voting.
		total := 0.0
		for _, c := range leaf {
			total += c
		}
		if total == 0 {
			return nil, fmt.Errorf("tree %d: empty leaf", ti)
		}
		for ci := range proba {
			proba[ci] += leaf[ci] / total
		}
	}

	n := float64(len(f.trees))
	for ci := range proba {
		proba[ci] /= n
	}
	return proba, nil
}

func (f *randomForest) Predict(vector []float64) (int, error) {
	proba, err := f.PredictProba(vector)
	if err != nil {
		return 0, err
	}

	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return f.classes[best], nil
}

// walk routes a sample from the root to a leaf and returns the leaf's
// per-class values.
func (t *treeDocument) walk(vector []float64) ([]float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Feature); steps++ {
		if node < 0 || node >= len(t.Feature) {
			return nil, fmt.Errorf("node index %d out of range", node)
		}
		if t.ChildrenLeft[node] < 0 {
			if node >= len(t.Value) {
				return nil, fmt.Errorf("leaf %d has no value", node)
			}
			return t.Value[node], nil
		}

		fi := t.Feature[node]
		if fi < 0 || fi >= len(vector) {
			return nil, fmt.Errorf("node %d references feature %d", node, fi)
		}
		if vector[fi] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return nil, fmt.Errorf("tree walk did not terminate")
}

// --- Logistic regression ---

type logisticRegression struct {
	classes   []int
	coef      []float64
	intercept float64
}

func (l *logisticRegression) Classes() []int { return l.classes }

func (l *logisticRegression) PredictProba(vector []float64) ([]float64, error) {
	if len(vector) != len(l.coef) {
		return nil, fmt.Errorf("feature vector has %d columns, model expects %d", len(vector), len(l.coef))
	}

	// Degenerate single-class model: all probability mass on the one class.
	if len(l.classes) == 1 {
		return []float64{1}, nil
	}

	z := l.intercept
	for i, v := range vector {
		z += l.coef[i] * v
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

func (l *logisticRegression) Predict(vector []float64) (int, error) {
	proba, err := l.PredictProba(vector)
	if err != nil {
		return 0, err
	}
	if len(proba) == 1 {
		return l.classes[0], nil
	}
	if proba[1] >= 0.5 {
		return l.classes[1], nil
	}
	return l.classes[0], nil
}
