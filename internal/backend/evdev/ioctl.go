package evdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func eviocgabs(code int) uintptr {
	return ioc(iocRead, uint32('E'), uint32(0x40+code), uint32(unsafe.Sizeof(absInfo{})))
}

func readAbsInfo(fd uintptr, code int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, eviocgabs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

// axisRange is the reported range of one absolute axis.
type axisRange struct {
	min, max int32
}

// normalize maps v into [0,1]. A degenerate range maps everything to 0.
func (r axisRange) normalize(v int32) float64 {
	if r.max <= r.min {
		return 0
	}
	n := float64(v-r.min) / float64(r.max-r.min)
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

// readRanges queries every axis in codes, skipping the ones the device
// does not report.
func readRanges(fd uintptr, codes []int) map[uint16]axisRange {
	out := make(map[uint16]axisRange, len(codes))
	for _, code := range codes {
		info, err := readAbsInfo(fd, code)
		if err != nil {
			continue
		}
		out[uint16(code)] = axisRange{min: info.Min, max: info.Max}
	}
	return out
}
