package rotation

import "syscall"

// freeDiskSpace reports the free bytes available on the filesystem
// containing dir, via syscall.Statfs. Grounded on the standard
// library's own syscall package rather than a third-party disk-usage
// library: no example repo in the corpus imports one, and statfs is a
// single direct syscall with no abstraction worth adding a dependency
// for.
func freeDiskSpace(dir string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
