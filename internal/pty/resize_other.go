//go:build !unix

package pty

func watchResize(fn func()) (stop func()) {
	return func() {}
}
