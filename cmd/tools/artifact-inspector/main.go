// cmd/tools/artifact-inspector/main.go
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/predictor"
	"loan-approval-api/pkg/manifest"
)

const manifestFile = "manifest.json"

var artifactFiles = []string{"model.json", "scaler.json", "encoders.json"}

func main() {
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	stampCmd := flag.NewFlagSet("stamp", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Inspect command flags
	dirInspect := inspectCmd.String("dir", "artifacts", "Path to the model artifact directory")

	// Stamp command flags
	dirStamp := stampCmd.String("dir", "artifacts", "Path to the model artifact directory")
	version := stampCmd.String("version", "1.0.0", "Model version to record")
	modelType := stampCmd.String("modelType", "random_forest", "Model type to record")

	// Validate command flags
	dirValidate := validateCmd.String("dir", "artifacts", "Path to the model artifact directory")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		if err := inspectArtifacts(*dirInspect); err != nil {
			fmt.Printf("Error inspecting artifacts: %v\n", err)
			os.Exit(1)
		}

	case "stamp":
		stampCmd.Parse(os.Args[2:])
		if err := stampManifest(*dirStamp, *version, *modelType); err != nil {
			fmt.Printf("Error writing manifest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", filepath.Join(*dirStamp, manifestFile))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateManifest(*dirValidate); err != nil {
			fmt.Printf("Manifest validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Manifest validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func inspectArtifacts(dir string) error {
	// Load anchors relative paths at the binary; pin to the given directory.
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	store := predictor.Load(abs, logger.NewNoOpLogger())

	fmt.Printf("Artifact directory: %s\n", dir)
	fmt.Printf("Usable for predictions: %v\n", store.Usable())
	fmt.Printf("Feature columns (%d): %v\n", len(predictor.FeatureOrder), predictor.FeatureOrder)
	for _, col := range predictor.CategoricalColumns {
		fmt.Printf("  %s: %v\n", col, store.Vocabulary(col))
	}

	m, err := manifest.LoadManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No manifest present. Run 'artifact-inspector stamp' to create one.")
			return nil
		}
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	fmt.Printf("Manifest version: %s (trained %s, type %s)\n", m.Version, m.TrainedAt, m.ModelType)
	for name, value := range m.Metrics {
		fmt.Printf("  metric %s: %.4f\n", name, value)
	}
	return nil
}

func stampManifest(dir, version, modelType string) error {
	m := &manifest.ModelManifest{
		Version:        version,
		TrainedAt:      time.Now().Format(time.RFC3339),
		ModelType:      modelType,
		FeatureColumns: predictor.FeatureOrder,
		Metrics:        map[string]float64{},
		Artifacts:      []manifest.ArtifactEntry{},
	}

	for _, file := range artifactFiles {
		sum, err := checksumFile(filepath.Join(dir, file))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to checksum %s: %w", file, err)
		}
		m.Artifacts = append(m.Artifacts, manifest.ArtifactEntry{
			File:   file,
			Kind:   artifactKind(file),
			SHA256: sum,
		})
	}

	if len(m.Artifacts) == 0 {
		return fmt.Errorf("no artifact files found in %s", dir)
	}

	return saveManifest(m, filepath.Join(dir, manifestFile))
}

func validateManifest(dir string) error {
	m, err := manifest.LoadManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	if m.Version == "" {
		return fmt.Errorf("manifest missing required field: version")
	}
	if m.TrainedAt == "" {
		return fmt.Errorf("manifest missing required field: trainedAt")
	}
	if len(m.Artifacts) == 0 {
		return fmt.Errorf("manifest lists no artifacts")
	}

	files := make(map[string]bool)
	for _, entry := range m.Artifacts {
		if files[entry.File] {
			return fmt.Errorf("duplicate artifact entry: %s", entry.File)
		}
		files[entry.File] = true

		sum, err := checksumFile(filepath.Join(dir, entry.File))
		if err != nil {
			return fmt.Errorf("artifact %s unreadable: %w", entry.File, err)
		}
		if sum != entry.SHA256 {
			return fmt.Errorf("artifact %s checksum mismatch: manifest %s, file %s", entry.File, entry.SHA256, sum)
		}
	}

	fmt.Printf("Manifest validation passed. Verified %d artifacts.\n", len(m.Artifacts))
	return nil
}

func checksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func artifactKind(file string) string {
	switch file {
	case "model.json":
		return "classifier"
	case "scaler.json":
		return "scaler"
	case "encoders.json":
		return "encoders"
	}
	return "unknown"
}

// saveManifest handles saving the manifest to file
func saveManifest(m *manifest.ModelManifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

func help() {
	fmt.Print(`
Usage: artifact-inspector <command> [flags]

Commands:
  inspect  Load the model artifacts and print a summary
  stamp    Write a manifest.json with checksums for the artifact directory
  validate Verify manifest.json against the artifact files
  help     Show this help message

Examples:
  artifact-inspector inspect -dir artifacts
  artifact-inspector stamp -dir artifacts -version 1.2.0 -modelType random_forest
  artifact-inspector validate -dir artifacts

Use 'artifact-inspector <command> -h' for more information about a command.
`)
}
