// Package diskplan implements §4.3: mount enumeration, longest-prefix file
// attribution, block accounting with a safety margin, and overwrite policy.
package diskplan

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

// Disk is one mount point's accounting record, §3 "Disk entry".
type Disk struct {
	MountPath        string
	BlockSize        int64
	FreeSpace        int64 // in bytes, as reported at enumeration time
	AccumulatedBlocks int64
	ReadOnly         bool
}

// Enumerator produces the target system's mount table. The real leaf is
// platform-specific (§6); MountsFileEnumerator below is the Linux
// /proc/mounts implementation, and tests substitute a StaticEnumerator.
type Enumerator interface {
	Enumerate() ([]Disk, error)
}

// StaticEnumerator returns a fixed mount table, used by tests and by
// callers on platforms without /proc/mounts.
type StaticEnumerator struct {
	Disks []Disk
}

func (s StaticEnumerator) Enumerate() ([]Disk, error) {
	out := make([]Disk, len(s.Disks))
	copy(out, s.Disks)
	return out, nil
}

// MountsFileEnumerator reads /proc/mounts (or an equivalent path, for
// testing) and statfs's each mount point for free space, block size and
// the read-only bit - the platform-specific leaf §6 calls out.
type MountsFileEnumerator struct {
	MountsPath string // defaults to /proc/mounts
	Statfs     func(path string, buf *syscall.Statfs_t) error
}

func NewMountsFileEnumerator() *MountsFileEnumerator {
	return &MountsFileEnumerator{MountsPath: "/proc/mounts", Statfs: syscall.Statfs}
}

func (m *MountsFileEnumerator) Enumerate() ([]Disk, error) {
	path := m.MountsPath
	if path == "" {
		path = "/proc/mounts"
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	statfs := m.Statfs
	if statfs == nil {
		statfs = syscall.Statfs
	}

	var disks []Disk
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		mountPath := fields[1]
		opts := strings.Split(fields[3], ",")

		var stat syscall.Statfs_t
		if err := statfs(mountPath, &stat); err != nil {
			continue // an unreadable mount (e.g. a stale autofs entry) is skipped, not fatal
		}

		disks = append(disks, Disk{
			MountPath: mountPath,
			BlockSize: int64(stat.Bsize),
			FreeSpace: int64(stat.Bavail) * int64(stat.Bsize),
			ReadOnly:  hasOpt(opts, "ro"),
		})
	}
	return disks, sc.Err()
}

func hasOpt(opts []string, want string) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}

// blocksForSize implements ceil(size / blockSize), §3 Disk entry invariant.
func blocksForSize(size, blockSize int64) int64 {
	if blockSize <= 0 {
		blockSize = 1
	}
	if size <= 0 {
		return 0
	}
	return (size + blockSize - 1) / blockSize
}
