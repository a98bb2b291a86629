package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"loan-approval-api/internal/common/logger"
)

// Artifact file names, fixed at training time.
const (
	classifierFile = "model.json"
	scalerFile     = "scaler.json"
	encodersFile   = "encoders.json"
)

// FeatureOrder is the exact column order the model was trained on.
var FeatureOrder = []string{
	"annual_income", "debt_to_income_ratio", "credit_score",
	"loan_amount", "interest_rate", "gender", "marital_status",
	"education_level", "employment_status", "loan_purpose", "grade_subgrade",
}

// CategoricalColumns are the feature columns that need label encoding.
var CategoricalColumns = []string{
	"gender", "marital_status", "education_level",
	"employment_status", "loan_purpose", "grade_subgrade",
}

// defaultVocabulary documents the expected categories for each categorical
// column when no fitted encoder artifact is present. Classes are listed in
// fitted (lexicographic) order. This fallback supports normalization and
// diagnostics only; predictions still require the full artifact set.
var defaultVocabulary = map[string][]string{
	"gender":            {"Female", "Male"},
	"marital_status":    {"Divorced", "Married", "Single", "Widowed"},
	"education_level":   {"Bachelor's", "High School", "Master's", "PhD"},
	"employment_status": {"Employed", "Self-employed", "Unemployed"},
	"loan_purpose": {
		"Business", "Car", "Debt consolidation", "Education",
		"Home", "Medical", "Other", "Vacation",
	},
	"grade_subgrade": {
		"A1", "A2", "B1", "B2", "C1", "C2", "C3", "C4", "C5",
		"D1", "D2", "D3", "F1",
	},
}

// Store holds the fitted model artifacts for the process lifetime. It is
// read-only after Load and shared across all concurrent requests.
type Store struct {
	classifier Classifier
	scaler     *StandardScaler
	encoders   map[string]*LabelEncoder
	usable     bool
	loadErr    string
	logger     logger.Logger
}

// Load reads the three artifacts from dir. A missing or unloadable
// classifier/scaler marks the store unusable rather than failing the
// process; missing encoders fall back to the default vocabulary.
func Load(dir string, log logger.Logger) *Store {
	s := &Store{
		encoders: make(map[string]*LabelEncoder),
		logger:   log.WithFields(map[string]interface{}{"component": "artifact-store"}),
	}

	dir = resolveArtifactDir(dir)

	s.loadClassifier(filepath.Join(dir, classifierFile))
	s.loadScaler(filepath.Join(dir, scalerFile))
	s.loadEncoders(filepath.Join(dir, encodersFile))

	s.usable = s.classifier != nil && s.scaler != nil
	if !s.usable {
		s.logger.Warn("model artifacts incomplete, predictions disabled", map[string]interface{}{
			"artifactDir": dir,
			"reason":      s.loadErr,
		})
	}

	return s
}

// resolveArtifactDir anchors relative paths at the running binary so the
// artifacts travel with the deployment, not the working directory.
func resolveArtifactDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return dir
	}
	return filepath.Join(filepath.Dir(exe), dir)
}

func (s *Store) loadClassifier(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.recordLoadFailure("classifier", path, err)
		return
	}
	if err := validateArtifact("classifier", classifierSchema, data); err != nil {
		s.recordLoadFailure("classifier", path, err)
		return
	}

	clf, err := DecodeClassifier(data)
	if err != nil {
		s.recordLoadFailure("classifier", path, err)
		return
	}

	s.classifier = clf
	s.logger.Info("model loaded successfully", map[string]interface{}{
		"path":    path,
		"classes": clf.Classes(),
	})
}

func (s *Store) loadScaler(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.recordLoadFailure("scaler", path, err)
		return
	}
	if err := validateArtifact("scaler", scalerSchema, data); err != nil {
		s.recordLoadFailure("scaler", path, err)
		return
	}

	var scaler StandardScaler
	if err := json.Unmarshal(data, &scaler); err != nil {
		s.recordLoadFailure("scaler", path, err)
		return
	}

	s.scaler = &scaler
	s.logger.Info("scaler loaded successfully", map[string]interface{}{
		"path":    path,
		"columns": len(scaler.Mean),
	})
}

func (s *Store) loadEncoders(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("encoders file not found, using default vocabulary", map[string]interface{}{
			"path": path,
		})
		for col, classes := range defaultVocabulary {
			s.encoders[col] = NewLabelEncoder(classes)
		}
		s.logVocabularies()
		return
	}

	if err := validateArtifact("encoders", encodersSchema, data); err != nil {
		s.recordLoadFailure("encoders", path, err)
		return
	}

	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		s.recordLoadFailure("encoders", path, err)
		return
	}

	for col, classes := range doc {
		s.encoders[col] = NewLabelEncoder(classes)
	}
	s.logger.Info("label encoders loaded successfully", map[string]interface{}{
		"path": path,
	})
	s.logVocabularies()
}

// logVocabularies lists the accepted categories per column for operability.
func (s *Store) logVocabularies() {
	for _, col := range CategoricalColumns {
		if enc, ok := s.encoders[col]; ok {
			s.logger.Info("expected categorical values", map[string]interface{}{
				"column": col,
				"values": enc.Classes(),
			})
		}
	}
}

func (s *Store) recordLoadFailure(artifact, path string, err error) {
	msg := fmt.Sprintf("%s: %v", artifact, err)
	if s.loadErr == "" {
		s.loadErr = msg
	} else {
		s.loadErr += "; " + msg
	}
	s.logger.Error("failed to load artifact", map[string]interface{}{
		"artifact": artifact,
		"path":     path,
		"error":    err.Error(),
	})
}

// Usable reports whether both the classifier and scaler loaded.
func (s *Store) Usable() bool {
	return s.usable
}

// Vocabulary returns the accepted categories for a categorical column, or
// nil if the column has no encoder.
func (s *Store) Vocabulary(column string) []string {
	enc, ok := s.encoders[column]
	if !ok {
		return nil
	}
	return enc.Classes()
}

// NewStoreFromArtifacts wires a store from already-decoded artifacts.
// Used by tests and by tools that synthesize fixture models.
func NewStoreFromArtifacts(clf Classifier, scaler *StandardScaler, encoders map[string][]string, log logger.Logger) *Store {
	s := &Store{
		classifier: clf,
		scaler:     scaler,
		encoders:   make(map[string]*LabelEncoder),
		logger:     log.WithFields(map[string]interface{}{"component": "artifact-store"}),
	}
	if encoders == nil {
		encoders = defaultVocabulary
	}
	for col, classes := range encoders {
		s.encoders[col] = NewLabelEncoder(classes)
	}
	s.usable = clf != nil && scaler != nil
	return s
}
