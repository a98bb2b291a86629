// pkg/manifest/schema.go
package manifest

type ModelManifest struct {
	Version        string             `json:"version"`
	TrainedAt      string             `json:"trainedAt"`
	ModelType      string             `json:"modelType"`
	FeatureColumns []string           `json:"featureColumns"`
	Metrics        map[string]float64 `json:"metrics"`
	Artifacts      []ArtifactEntry    `json:"artifacts"`
}

type ArtifactEntry struct {
	File   string `json:"file"`
	Kind   string `json:"kind"`
	SHA256 string `json:"sha256"`
}
