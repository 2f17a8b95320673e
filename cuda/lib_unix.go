//go:build !windows

package cuda

var libraryNames = []string{
	"libcuda.so.1",
	"libcuda.so",
}
