package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comboseq/internal/compiler"
)

func TestLoadAsset(t *testing.T) {
	asset, err := loadAsset(pressReleaseAsset, "")
	require.NoError(t, err)
	assert.Equal(t, "press_release", asset.Name)

	asset, err = loadAsset("testdata/assets", "hadouken")
	require.NoError(t, err)
	assert.Equal(t, "hadouken", asset.Name)
}

func TestLoadAsset_Errors(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		assetName string
		wantErr   string
	}{
		{"missing path", "/nonexistent", "", compiler.ErrCodeNotFound},
		{"unknown name", "testdata/assets", "shoryuken", `asset "shoryuken" not found`},
		{"ambiguous", "testdata/assets", "", "use --name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadAsset(tt.path, tt.assetName)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestLoadValidAsset_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeCUE(t, dir, "bad.cue", `asset: bad: states: [{parent: 0}]`)

	_, err := loadValidAsset(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset bad is invalid")
	assert.Contains(t, err.Error(), compiler.ErrRootParent)
}

func TestLoadErrorCode(t *testing.T) {
	assert.Equal(t, compiler.ErrCodeNoFiles, loadErrorCode(&compiler.LoadError{Code: compiler.ErrCodeNoFiles}))
	assert.Equal(t, compiler.ErrCodeGeneric, loadErrorCode(assert.AnError))
}
