package source

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// mmapReadFile maps filename read-only and copies it into an owned
// byte slice, then unmaps it. Compiled .lucky artifacts are read-only
// once produced, so mapping avoids a full kernel-to-userspace copy
// before the gzip/binary decoder even starts; the copy back into a Go
// slice happens anyway so callers don't have to manage the mapping's
// lifetime (and so the bytes survive after the fd is closed).
func mmapReadFile(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	out := make([]byte, len(m))
	copy(out, m)
	return out, nil
}
