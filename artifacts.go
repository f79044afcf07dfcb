package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// ModelArtifacts are the fitted pieces an offline training process hands
// to the core: the canonical feature order, the scaling transform and the
// two calibration curves. The core does not care how they were produced.
type ModelArtifacts struct {
	FeatureOrder []string   `json:"feature_order"`
	Scaler       Scaler     `json:"scaler"`
	Calibrator   Calibrator `json:"calibrator"`
}

// artifact file names inside a model directory
const (
	featureOrderFile = "feature_order.txt"
	scalerFile       = "scaler.json"
	calibratorFile   = "calibration.json"
)

// SaveArtifacts writes the artifact set into dir. Each file is written to
// a tmp path then renamed, so readers never see a half-written artifact.
func SaveArtifacts(dir string, a ModelArtifacts) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	order := strings.Join(a.FeatureOrder, "\n") + "\n"
	if err := atomicWrite(filepath.Join(dir, featureOrderFile), []byte(order)); err != nil {
		return err
	}

	if err := atomicWriteJSON(filepath.Join(dir, scalerFile), a.Scaler); err != nil {
		return err
	}
	return atomicWriteJSON(filepath.Join(dir, calibratorFile), a.Calibrator)
}

// LoadArtifacts reads an artifact set back from dir.
func LoadArtifacts(dir string) (ModelArtifacts, error) {
	var a ModelArtifacts

	order, err := loadFeatureOrder(filepath.Join(dir, featureOrderFile))
	if err != nil {
		return a, err
	}
	a.FeatureOrder = order

	if err := readJSON(filepath.Join(dir, scalerFile), &a.Scaler); err != nil {
		return a, err
	}
	if err := readJSON(filepath.Join(dir, calibratorFile), &a.Calibrator); err != nil {
		return a, err
	}
	return a, nil
}

// loadFeatureOrder reads one feature name per line, skipping blanks.
func loadFeatureOrder(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var order []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			order = append(order, line)
		}
	}
	return order, sc.Err()
}

func atomicWriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, b)
}

func atomicWrite(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path) // atomic replace
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
