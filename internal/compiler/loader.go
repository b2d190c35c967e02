package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/comboseq/internal/ir"
)

// LoadMode says whether LoadAssets stops at the first broken asset.
type LoadMode int

const (
	LoadModeFailFast LoadMode = iota
	LoadModeCollectAll
)

// Load error codes, shared by every command that reads CUE.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002" // directory walk failed
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004" // cue/load rejected the files
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeNoAssets    = "E007"
	ErrCodeDecode      = "E008" // an asset did not compile
)

// LoadResult holds the assets compiled from a file or directory, sorted by
// name.
type LoadResult struct {
	Assets    []*ir.Asset
	FileCount int
}

// Asset returns the asset with the given name, or nil.
func (r *LoadResult) Asset(name string) *ir.Asset {
	i := slices.IndexFunc(r.Assets, func(a *ir.Asset) bool { return a.Name == name })
	if i < 0 {
		return nil
	}
	return r.Assets[i]
}

// LoadError is a load failure with its code and, when known, the CUE
// position it refers to.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func loadFailure(code, format string, args ...any) []error {
	return []error{&LoadError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// LoadAssets evaluates the CUE at path, a directory or a single .cue file,
// and compiles every `asset: <name>: {...}` definition in it.
//
// A nil result means nothing could be evaluated. Otherwise the errors are
// per-asset compile failures: all of them in LoadModeCollectAll, the first
// in LoadModeFailFast.
func LoadAssets(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, loadFailure(ErrCodeNotFound, "asset path not found: %s", path)
	case err != nil:
		return nil, loadFailure(ErrCodeNotFound, "error accessing asset path: %v", err)
	}

	cfg := &load.Config{Dir: filepath.Dir(path)}
	arg, files := "./"+filepath.Base(path), []string(nil)
	if info.IsDir() {
		// Asset files carry no package clause; "_" selects exactly those.
		cfg = &load.Config{Dir: path, Package: "_"}
		arg = "."
		if files, err = findCUEFiles(path); err != nil {
			return nil, loadFailure(ErrCodeScanError, "error scanning directory: %v", err)
		}
	} else if strings.HasSuffix(path, ".cue") {
		files = []string{path}
	}
	if len(files) == 0 {
		return nil, loadFailure(ErrCodeNoFiles, "no CUE files found in %s", path)
	}

	value, errs := evaluate(cfg, arg)
	if errs != nil {
		return nil, errs
	}

	result := &LoadResult{FileCount: len(files)}
	errs = compileAssets(value.LookupPath(cue.ParsePath("asset")), mode, result)
	if len(result.Assets) == 0 && len(errs) == 0 {
		errs = loadFailure(ErrCodeNoAssets, "no asset definitions found")
	}
	slices.SortStableFunc(result.Assets, func(a, b *ir.Asset) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, errs
}

// evaluate loads and builds the CUE instance arg under cfg.
func evaluate(cfg *load.Config, arg string) (cue.Value, []error) {
	instances := load.Instances([]string{arg}, cfg)
	if len(instances) == 0 {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if err := instances[0].Err; err != nil {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "loading CUE files: %v", err)
	}
	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return cue.Value{}, loadFailure(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return value, nil
}

// compileAssets compiles each field of the asset struct into result.
func compileAssets(assets cue.Value, mode LoadMode, result *LoadResult) []error {
	if !assets.Exists() {
		return nil
	}
	iter, err := assets.Fields()
	if err != nil {
		return loadFailure(ErrCodeGeneric, "iterating assets: %v", err)
	}

	var errs []error
	for iter.Next() {
		asset, err := CompileAsset(iter.Value())
		if err != nil {
			errs = append(errs, positioned(err, "asset."+iter.Label()))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		result.Assets = append(result.Assets, asset)
	}
	return errs
}

func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return err
	})
	return files, err
}

// positioned turns a compile error for the asset at label into a LoadError
// that keeps the CUE position.
func positioned(err error, label string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ErrCodeDecode,
			Message: fmt.Sprintf("%s.%s: %s", label, ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", label, err)}
}
