package rocplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/teximal/internal/engine/metrics"
)

func testCurve() []metrics.ROCPoint {
	return metrics.ROCCurve(
		[]bool{true, false, true, false, true},
		[]float64{0.9, 0.2, 0.6, 0.7, 0.4},
	)
}

func TestSave(t *testing.T) {
	for _, name := range []string{"roc.png", "roc.svg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, testCurve(), 0.83))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestSaveUndefinedAUC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roc.png")
	assert.NoError(t, Save(path, testCurve(), math.NaN()))
}

func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Save(filepath.Join(dir, "roc.png"), nil, 1), ErrNoCurve)
	assert.Error(t, Save(filepath.Join(dir, "roc.unknown"), testCurve(), 1))
}
