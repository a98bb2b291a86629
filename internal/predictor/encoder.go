package predictor

// LabelEncoder maps a closed set of string categories to integer codes.
// The code is the category's position in the class list, matching the
// ordering captured when the encoder was fitted. Immutable after load.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder over an ordered class list.
func NewLabelEncoder(classes []string) *LabelEncoder {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return &LabelEncoder{classes: classes, index: idx}
}

// Encode returns the integer code for a category, or false if the category
// is not in the vocabulary.
func (e *LabelEncoder) Encode(category string) (int, bool) {
	code, ok := e.index[category]
	return code, ok
}

// Classes returns the accepted vocabulary in fitted order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
