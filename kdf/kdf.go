// Package kdf hashes passwords with Argon2 and encodes the result in the
// conventional $argon2id$v=19$m=...,t=...,p=...$salt$hash text form.
package kdf

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Version is the Argon2 version implemented and encoded by this package (0x13).
const Version = argon2.Version

// Argon2 limits
const (
	MinSaltLen = 8
	MinKeyLen  = 4
	MinTime    = 1
	MaxThreads = 1<<24 - 1

	// MaxMemory caps the memory cost (KiB) at 64 GiB. Argon2 itself allows
	// up to 4 TiB, but an allocation that large aborts the runtime instead
	// of returning an error.
	MaxMemory = 64 << 20

	// minimum number of memory blocks (KiB) per lane
	minLaneMemory = 2 * syncPoints
)

var (
	// ErrInvalidParams is returned when hashing parameters fall outside the
	// range Argon2 supports.
	ErrInvalidParams = errors.New("invalid argon2 parameters")

	// ErrInvalidHash is returned when an encoded hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid encoded argon2 hash")
)

// Variant selects one of the three Argon2 flavours. The values are the type
// codes mixed into the initial hash.
type Variant uint32

const (
	Argon2d Variant = iota
	Argon2i
	Argon2id
)

func (v Variant) String() string {
	switch v {
	case Argon2d:
		return "argon2d"
	case Argon2i:
		return "argon2i"
	case Argon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("Variant(%d)", uint32(v))
	}
}

// ParseVariant maps a case-insensitive variant name to a Variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "argon2d":
		return Argon2d, nil
	case "argon2i":
		return Argon2i, nil
	case "argon2id":
		return Argon2id, nil
	}
	return 0, fmt.Errorf("unknown argon2 variant %q", name)
}

// Params holds everything needed to produce one hash. Memory is in KiB.
type Params struct {
	Variant Variant
	SaltLen uint32
	KeyLen  uint32
	Time    uint32
	Memory  uint32
	Threads uint32

	// Secret is the optional Argon2 secret value (K). The caller owns it.
	Secret []byte
}

// Validate checks p against the limits of the Argon2 algorithm.
func (p Params) Validate() error {
	if p.Variant > Argon2id {
		return fmt.Errorf("%w: unknown variant %d", ErrInvalidParams, uint32(p.Variant))
	}
	if p.SaltLen < MinSaltLen {
		return fmt.Errorf("%w: salt length must be at least %d bytes, got %d", ErrInvalidParams, MinSaltLen, p.SaltLen)
	}
	if p.KeyLen < MinKeyLen {
		return fmt.Errorf("%w: hash length must be at least %d bytes, got %d", ErrInvalidParams, MinKeyLen, p.KeyLen)
	}
	if p.Time < MinTime {
		return fmt.Errorf("%w: iteration count must be at least %d, got %d", ErrInvalidParams, MinTime, p.Time)
	}
	if p.Threads < 1 || p.Threads > MaxThreads {
		return fmt.Errorf("%w: thread count must be between 1 and %d, got %d", ErrInvalidParams, MaxThreads, p.Threads)
	}
	if uint64(p.Memory) < minLaneMemory*uint64(p.Threads) {
		return fmt.Errorf("%w: memory cost (%d KiB) must be at least %d KiB for %d threads",
			ErrInvalidParams, p.Memory, minLaneMemory*uint64(p.Threads), p.Threads)
	}
	if p.Memory > MaxMemory {
		return fmt.Errorf("%w: memory cost (%d KiB) must be at most %d KiB", ErrInvalidParams, p.Memory, MaxMemory)
	}
	if uint64(len(p.Secret)) > math.MaxUint32 {
		return fmt.Errorf("%w: secret is too long", ErrInvalidParams)
	}
	return nil
}

// Key derives keyLen bytes from password. Memory is in KiB.
//
// Unkeyed Argon2i and Argon2id with at most 255 lanes are computed by
// golang.org/x/crypto/argon2, which carries assembly block mixing. Argon2d,
// keyed hashing and wider lanes use this package's engine.
func Key(v Variant, password, salt, secret []byte, time, memory, threads, keyLen uint32) []byte {
	if len(secret) == 0 && threads <= math.MaxUint8 {
		switch v {
		case Argon2i:
			return argon2.Key(password, salt, time, memory, uint8(threads), keyLen)
		case Argon2id:
			return argon2.IDKey(password, salt, time, memory, uint8(threads), keyLen)
		}
	}
	return deriveKey(v, password, salt, secret, nil, time, memory, threads, keyLen)
}
