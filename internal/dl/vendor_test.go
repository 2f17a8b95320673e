package dl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVendorCandidates(t *testing.T) {
	t.Setenv("TEST_SDK_PATH", "/custom/sdk")
	t.Setenv("TEST_SDK_PATH_EMPTY", "")

	candidates := vendorCandidates(
		"libExample.so",
		[]string{"TEST_SDK_PATH", "TEST_SDK_PATH_EMPTY"},
		[]string{"/usr/local/Example"},
	)
	require.Equal(t, []string{
		filepath.Join("/custom/sdk", "libExample.so"),
		filepath.Join("/custom/sdk", "lib", "libExample.so"),
		filepath.Join("/usr/local/Example", "libExample.so"),
		filepath.Join("/usr/local/Example", "lib", "libExample.so"),
	}, candidates)
}

func TestVendorCandidatesWithoutRoots(t *testing.T) {
	require.Empty(t, vendorCandidates("libExample.so", nil, nil))
}
