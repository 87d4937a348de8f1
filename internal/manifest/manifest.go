// Package manifest loads pipeline definitions from YAML files.
//
// A manifest names a pipeline, declares its flavor, and lists stages in
// wire spelling:
//
//	name: active-users
//	flavor: aggregation
//	stages:
//	  - $match: {status: active}
//	  - $set:
//	      total: {$multiply: ["$price", "$qty"]}
//	  - $unset: [password]
//
// Loading is strict: unknown top-level fields, unknown stage operators,
// and malformed stage bodies all fail with the stage position in the
// error. The loaded pipeline is the same descriptor tree the Go builder
// produces, so everything downstream (validation, wire compilation,
// registry) treats both sources identically.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/internal/pipeline"
)

// Manifest is a named, loaded pipeline.
type Manifest struct {
	Name     string
	Pipeline pipeline.Pipeline
}

// document is the raw YAML layout. Stages stay as nodes so stage parsing
// can preserve key order where it matters ($sort).
type document struct {
	Name   string      `yaml:"name"`
	Flavor string      `yaml:"flavor"`
	Stages []yaml.Node `yaml:"stages"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse parses manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if doc.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	flavor, err := parseFlavor(doc.Flavor)
	if err != nil {
		return nil, err
	}

	fns := make([]pipeline.StageFunc, len(doc.Stages))
	for i := range doc.Stages {
		s, err := parseStage(&doc.Stages[i])
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		fns[i] = pipeline.Stage(s)
	}

	var p pipeline.Pipeline
	switch flavor {
	case pipeline.FlavorAggregation:
		p = pipeline.Aggregation(fns...)
	case pipeline.FlavorUpdate:
		p = pipeline.Update(fns...)
	}

	return &Manifest{Name: doc.Name, Pipeline: p}, nil
}

func parseFlavor(s string) (pipeline.Flavor, error) {
	switch s {
	case "aggregation":
		return pipeline.FlavorAggregation, nil
	case "update":
		return pipeline.FlavorUpdate, nil
	case "":
		return 0, fmt.Errorf("flavor is required (aggregation or update)")
	default:
		return 0, fmt.Errorf("unknown flavor %q (want aggregation or update)", s)
	}
}

// operatorKey extracts the single "$op" key of a stage mapping node.
func operatorKey(node *yaml.Node) (op string, body *yaml.Node, err error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return "", nil, fmt.Errorf("stage must be a single-key mapping like {$match: {...}}")
	}
	return node.Content[0].Value, node.Content[1], nil
}
