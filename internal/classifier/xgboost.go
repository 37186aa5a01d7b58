package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Objetivos soportados del Booster.
const (
	ObjectiveSoftProb = "multi:softprob"
	ObjectiveSoftMax  = "multi:softmax"
	ObjectiveLogistic = "binary:logistic"
)

var ErrInvalidModel = errors.New("invalid xgboost model")

// Booster evalua un modelo XGBoost guardado con save_model en formato JSON.
// Es de solo lectura una vez construido.
type Booster struct {
	objective  string
	numClass   int
	numFeature int
	baseScore  []float64
	trees      []tree
	treeClass  []int
}

type tree struct {
	left        []int
	right       []int
	splitIndex  []int
	splitCond   []float32
	defaultLeft []bool
}

type xgbDocument struct {
	Learner struct {
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				TreeInfo []int     `json:"tree_info"`
				Trees    []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int           `json:"left_children"`
	RightChildren   []int           `json:"right_children"`
	SplitIndices    []int           `json:"split_indices"`
	SplitConditions []float64       `json:"split_conditions"`
	DefaultLeft     json.RawMessage `json:"default_left"`
}

// ParseBooster decodifica el JSON de un Booster gbtree.
func ParseBooster(data []byte) (*Booster, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidModel, err)
	}

	l := doc.Learner
	if name := l.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("%w: unsupported booster %q", ErrInvalidModel, name)
	}

	numClass, err := parseIntParam(l.LearnerModelParam.NumClass)
	if err != nil {
		return nil, fmt.Errorf("%w: num_class: %v", ErrInvalidModel, err)
	}
	numFeature, err := parseIntParam(l.LearnerModelParam.NumFeature)
	if err != nil {
		return nil, fmt.Errorf("%w: num_feature: %v", ErrInvalidModel, err)
	}
	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, fmt.Errorf("%w: base_score: %v", ErrInvalidModel, err)
	}

	raw := l.GradientBooster.Model
	if len(raw.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	if len(raw.TreeInfo) != len(raw.Trees) {
		return nil, fmt.Errorf("%w: tree_info has %d entries for %d trees", ErrInvalidModel, len(raw.TreeInfo), len(raw.Trees))
	}

	groups := numClass
	if groups < 1 {
		groups = 1
	}
	switch len(baseScore) {
	case groups:
	case 1:
		baseScore = broadcast(baseScore[0], groups)
	default:
		return nil, fmt.Errorf("%w: base_score has %d entries for %d output groups", ErrInvalidModel, len(baseScore), groups)
	}

	b := &Booster{
		objective:  l.Objective.Name,
		numClass:   numClass,
		numFeature: numFeature,
		baseScore:  baseScore,
		trees:      make([]tree, 0, len(raw.Trees)),
		treeClass:  make([]int, len(raw.TreeInfo)),
	}
	for i, t := range raw.Trees {
		parsed, err := convertTree(t)
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidModel, i, err)
		}
		if raw.TreeInfo[i] < 0 || raw.TreeInfo[i] >= groups {
			return nil, fmt.Errorf("%w: tree %d assigned to class %d", ErrInvalidModel, i, raw.TreeInfo[i])
		}
		b.trees = append(b.trees, parsed)
		b.treeClass[i] = raw.TreeInfo[i]
	}
	return b, nil
}

func convertTree(t xgbTree) (tree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return tree{}, errors.New("empty tree")
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return tree{}, errors.New("node arrays have different lengths")
	}
	defaults, err := decodeDefaultLeft(t.DefaultLeft, n)
	if err != nil {
		return tree{}, err
	}
	for i := 0; i < n; i++ {
		l, r := t.LeftChildren[i], t.RightChildren[i]
		if l == -1 {
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
		}
	}
	// XGBoost guarda umbrales y hojas en float32.
	conds := make([]float32, n)
	for i, c := range t.SplitConditions {
		conds[i] = float32(c)
	}
	return tree{
		left:        t.LeftChildren,
		right:       t.RightChildren,
		splitIndex:  t.SplitIndices,
		splitCond:   conds,
		defaultLeft: defaults,
	}, nil
}

// decodeDefaultLeft acepta tanto [0,1,...] (XGBoost 1.x) como [true,false,...].
func decodeDefaultLeft(raw json.RawMessage, n int) ([]bool, error) {
	out := make([]bool, n)
	if len(raw) == 0 {
		return out, nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("default_left: %v", err)
	}
	if len(items) != n {
		return nil, fmt.Errorf("default_left has %d entries for %d nodes", len(items), n)
	}
	for i, item := range items {
		switch v := item.(type) {
		case bool:
			out[i] = v
		case float64:
			out[i] = v != 0
		default:
			return nil, fmt.Errorf("default_left[%d] has type %T", i, item)
		}
	}
	return out, nil
}

func parseIntParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseBaseScore acepta "5E-1" y el vector con corchetes de XGBoost 3,
// "[5E-1]" o "[1E0,0E0,...]" con un intercepto por grupo de salida.
func parseBaseScore(raw string) ([]float64, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	if strings.TrimSpace(raw) == "" {
		return []float64{0.5}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func broadcast(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (b *Booster) Objective() string { return b.objective }
func (b *Booster) NumClass() int { return b.numClass }
func (b *Booster) NumFeature() int { return b.numFeature }

// Predict devuelve la salida cruda del Booster para una fila.
// multi:softprob produce numClass probabilidades; multi:softmax y binary:logistic un solo valor.
func (b *Booster) Predict(x []float64) ([]float64, error) {
	if b.numFeature > 0 && len(x) != b.numFeature {
		return nil, fmt.Errorf("feature vector has %d values, model expects %d", len(x), b.numFeature)
	}
	margins := b.margins(x)

	switch b.objective {
	case ObjectiveSoftProb:
		return softmax(margins), nil
	case ObjectiveSoftMax:
		return []float64{float64(argmax(margins))}, nil
	case ObjectiveLogistic:
		return []float64{1 / (1 + math.Exp(-margins[0]))}, nil
	default:
		return margins, nil
	}
}

func (b *Booster) margins(x []float64) []float64 {
	groups := b.numClass
	if groups < 1 {
		groups = 1
	}
	out := make([]float64, groups)
	copy(out, b.baseScore)
	if b.objective == ObjectiveLogistic {
		// base_score se guarda como probabilidad; el margen es su logit.
		out[0] = math.Log(b.baseScore[0] / (1 - b.baseScore[0]))
	}
	for i := range b.trees {
		out[b.treeClass[i]] += b.trees[i].leaf(x)
	}
	return out
}

func (t *tree) leaf(x []float64) float64 {
	node := 0
	for t.left[node] != -1 {
		idx := t.splitIndex[node]
		var v float32
		missing := idx < 0 || idx >= len(x)
		if !missing {
			// La entrada se compara en float32, igual que en XGBoost.
			v = float32(x[idx])
			missing = math.IsNaN(x[idx])
		}
		switch {
		case missing && t.defaultLeft[node]:
			node = t.left[node]
		case missing:
			node = t.right[node]
		case v < t.splitCond[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	// En las hojas XGBoost guarda el valor en split_conditions.
	return float64(t.splitCond[node])
}

func softmax(margins []float64) []float64 {
	maxM := math.Inf(-1)
	for _, m := range margins {
		if m > maxM {
			maxM = m
		}
	}
	out := make([]float64, len(margins))
	var total float64
	for i, m := range margins {
		out[i] = math.Exp(m - maxM)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
