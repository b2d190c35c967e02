package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/comboseq/internal/compiler"
	"github.com/roach88/comboseq/internal/ir"
)

// loadAsset compiles the assets at path and returns the one named name.
// An empty name is allowed when the path defines exactly one asset.
//
// Every failure is an ExitError with ExitCommandError, carrying the
// loader's error code in its message.
func loadAsset(path, name string) (*ir.Asset, error) {
	loaded, errs := compiler.LoadAssets(path, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load asset", errs[0])
	}
	return selectAsset(loaded, path, name)
}

// selectAsset picks one asset out of a load result.
func selectAsset(loaded *compiler.LoadResult, path, name string) (*ir.Asset, error) {
	if name != "" {
		asset := loaded.Asset(name)
		if asset == nil {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("%s: asset %q not found in %s (have %s)",
					compiler.ErrCodeNotFound, name, path, strings.Join(assetNames(loaded), ", ")))
		}
		return asset, nil
	}

	if len(loaded.Assets) != 1 {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: %s defines %d assets (%s): use --name to pick one",
				compiler.ErrCodeGeneric, path, len(loaded.Assets), strings.Join(assetNames(loaded), ", ")))
	}
	return loaded.Assets[0], nil
}

// loadValidAsset is loadAsset followed by Validate. The first validation
// error fails the command.
func loadValidAsset(path, name string) (*ir.Asset, error) {
	asset, err := loadAsset(path, name)
	if err != nil {
		return nil, err
	}
	if verrs := compiler.Validate(asset); len(verrs) > 0 {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("asset %s is invalid (%d error(s))", asset.Name, len(verrs)), verrs[0])
	}
	return asset, nil
}

func assetNames(loaded *compiler.LoadResult) []string {
	names := make([]string, len(loaded.Assets))
	for i, a := range loaded.Assets {
		names[i] = a.Name
	}
	return names
}

// loadErrorCode extracts the loader code of err, or E001.
func loadErrorCode(err error) string {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return compiler.ErrCodeGeneric
}
