// pkg/manifest/manifest.go
package manifest

import (
	"encoding/json"
	"os"
)

func LoadManifest(path string) (*ModelManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m ModelManifest
	err = json.Unmarshal(data, &m)
	return &m, err
}
