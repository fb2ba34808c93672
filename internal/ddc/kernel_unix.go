//go:build unix

package ddc

import "golang.org/x/sys/unix"

// kernelInfo fills the kernel fields from uname(2).
func kernelInfo(info *LinuxInfo) error {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return err
	}

	info.KernelName = unix.ByteSliceToString(utsname.Sysname[:])
	info.KernelRelease = unix.ByteSliceToString(utsname.Release[:])
	info.KernelVersion = unix.ByteSliceToString(utsname.Version[:])
	info.Machine = unix.ByteSliceToString(utsname.Machine[:])
	return nil
}
