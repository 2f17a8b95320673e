//go:build windows

package cuda

var libraryNames = []string{
	"nvcuda.dll",
}
