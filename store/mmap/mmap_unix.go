//go:build unix

package mmap

import "golang.org/x/sys/unix"

const prot = unix.PROT_READ | unix.PROT_WRITE

func mapAnon(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, prot, unix.MAP_ANON|unix.MAP_SHARED)
}

func mapFile(fd uintptr, size int) ([]byte, error) {
	return unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
}

func sync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}
