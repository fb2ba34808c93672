//go:build !unix

package ddc

import "errors"

func kernelInfo(*LinuxInfo) error {
	return errors.New("uname not available on this platform")
}
