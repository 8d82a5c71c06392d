//go:build !unix

package mmap

import "errors"

var ErrNotSupported = errors.New("mmap store: not supported on this platform")

func mapAnon(int) ([]byte, error)          { return nil, ErrNotSupported }
func mapFile(uintptr, int) ([]byte, error) { return nil, ErrNotSupported }
func sync([]byte) error                    { return ErrNotSupported }
func unmap([]byte) error                   { return nil }
