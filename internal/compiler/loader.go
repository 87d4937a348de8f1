package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/pipewright/pipewright/internal/shape"
)

// LoadSchemas loads every collection schema from a directory of CUE files.
// All files are unified into one instance first, so a collection may be
// split or constrained across files the usual CUE way.
//
// Returns a map keyed by collection name.
func LoadSchemas(dir string) (map[string]shape.Shape, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("schema directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("accessing schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning schema directory: %w", err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}

	return extractSchemas(value)
}

// CompileSchemaSource compiles schemas from a single CUE source string.
// Mostly a test convenience; LoadSchemas is the production path.
func CompileSchemaSource(source string) (map[string]shape.Shape, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(source)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return extractSchemas(value)
}

func extractSchemas(value cue.Value) (map[string]shape.Shape, error) {
	schemasVal := value.LookupPath(cue.ParsePath("schema"))
	if !schemasVal.Exists() {
		return nil, fmt.Errorf("no schema declarations found")
	}

	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	schemas := make(map[string]shape.Shape)
	for iter.Next() {
		name := iter.Label()
		s, err := CompileSchema(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		schemas[name] = s
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no collection schemas declared under schema")
	}
	return schemas, nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
