package lanes

import (
	"os"
	"strconv"

	"golang.org/x/sys/cpu"
)

// Target names the vector instruction set a host offers for float64 FMA.
type Target int

const (
	// TargetScalar means lanes are processed one at a time.
	TargetScalar Target = iota
	// TargetAVX2 is 256-bit x86 with FMA3.
	TargetAVX2
	// TargetAVX512 is 512-bit x86 (AVX-512F).
	TargetAVX512
	// TargetNEON is 128-bit ARM Advanced SIMD.
	TargetNEON
)

// String returns the lower-case ISA name.
func (t Target) String() string {
	switch t {
	case TargetAVX2:
		return "avx2"
	case TargetAVX512:
		return "avx512"
	case TargetNEON:
		return "neon"
	default:
		return "scalar"
	}
}

// registerBytes is the register width of t in bytes.
func (t Target) registerBytes() int {
	switch t {
	case TargetAVX2:
		return 32
	case TargetAVX512:
		return 64
	case TargetNEON:
		return 16
	default:
		return 8
	}
}

// NoSimdEnv is the environment variable that forces TargetScalar.
const NoSimdEnv = "LANEFRAC_NO_SIMD"

var detected = detect()

func detect() Target {
	if v := os.Getenv(NoSimdEnv); v != "" {
		if b, err := strconv.ParseBool(v); err != nil || b {
			return TargetScalar
		}
	}
	switch {
	case cpu.X86.HasAVX512F:
		return TargetAVX512
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA:
		return TargetAVX2
	case cpu.ARM64.HasASIMD:
		return TargetNEON
	default:
		return TargetScalar
	}
}

// HostTarget returns the ISA detected at start-up.
func HostTarget() Target {
	return detected
}

// RegistersPerVector returns how many hardware registers one F64 occupies on
// target t.
func RegistersPerVector(t Target) int {
	n := Width * 8 / t.registerBytes()
	if n < 1 {
		return 1
	}
	return n
}
