package kdf

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tink-crypto/tink-go/v2/subtle/random"
)

// Hash is the self-describing result of one Argon2 computation.
type Hash struct {
	Variant Variant
	Version uint32
	Memory  uint32
	Time    uint32
	Threads uint32
	Salt    []byte
	Key     []byte
}

// Hasher generates a random salt and hashes passwords with it.
type Hasher struct {
	// Rand returns n random bytes. Defaults to tink's crypto/rand-backed
	// random.GetRandomBytes.
	Rand func(n uint32) []byte

	// Log receives debug records about each computation. Defaults to
	// slog.Default().
	Log *slog.Logger
}

// Hash validates p, draws a fresh salt and derives the tag for password.
// Errors never include the password or secret.
func (h *Hasher) Hash(p Params, password []byte) (*Hash, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rnd := h.Rand
	if rnd == nil {
		rnd = random.GetRandomBytes
	}
	log := h.Log
	if log == nil {
		log = slog.Default()
	}

	salt := rnd(p.SaltLen)
	if uint32(len(salt)) != p.SaltLen {
		return nil, fmt.Errorf("salt source returned %d bytes, want %d", len(salt), p.SaltLen)
	}

	log.Debug("deriving argon2 hash",
		slog.String("variant", p.Variant.String()),
		slog.Uint64("memory_kib", uint64(p.Memory)),
		slog.Uint64("iterations", uint64(p.Time)),
		slog.Uint64("threads", uint64(p.Threads)),
		slog.Bool("keyed", len(p.Secret) > 0),
	)
	start := time.Now()
	key := Key(p.Variant, password, salt, p.Secret, p.Time, p.Memory, p.Threads, p.KeyLen)
	log.Debug("derived argon2 hash", slog.Duration("duration", time.Since(start)))

	return &Hash{
		Variant: p.Variant,
		Version: Version,
		Memory:  p.Memory,
		Time:    p.Time,
		Threads: p.Threads,
		Salt:    salt,
		Key:     key,
	}, nil
}

// Encode formats h in the conventional Argon2 text encoding:
//
//	$argon2id$v=19$m=62500,t=18,p=1$<base64(salt)>$<base64(hash)>
//
// Salt and hash use the standard base64 alphabet without padding.
func (h *Hash) Encode() string {
	buf := make([]byte, 0, 64+base64.RawStdEncoding.EncodedLen(len(h.Salt))+base64.RawStdEncoding.EncodedLen(len(h.Key)))
	buf = append(buf, '$')
	buf = append(buf, h.Variant.String()...)
	buf = append(buf, "$v="...)
	buf = strconv.AppendUint(buf, uint64(h.Version), 10)
	buf = append(buf, "$m="...)
	buf = strconv.AppendUint(buf, uint64(h.Memory), 10)
	buf = append(buf, ",t="...)
	buf = strconv.AppendUint(buf, uint64(h.Time), 10)
	buf = append(buf, ",p="...)
	buf = strconv.AppendUint(buf, uint64(h.Threads), 10)
	buf = append(buf, '$')
	buf = append(buf, base64.RawStdEncoding.EncodeToString(h.Salt)...)
	buf = append(buf, '$')
	buf = append(buf, base64.RawStdEncoding.EncodeToString(h.Key)...)
	return string(buf)
}

func (h *Hash) String() string {
	return h.Encode()
}

// Decode parses an encoded hash produced by Encode or by any verifier that
// uses the same format. Parameters must appear in m, t, p order.
func Decode(encoded string) (*Hash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, fmt.Errorf("%w: expected 6 '$'-separated fields", ErrInvalidHash)
	}

	v, err := ParseVariant(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	version, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidHash)
	}
	ver, err := strconv.ParseUint(version, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrInvalidHash, err)
	}
	if ver != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, ver)
	}

	h := &Hash{Variant: v, Version: uint32(ver)}
	params := strings.Split(fields[3], ",")
	if len(params) != 3 {
		return nil, fmt.Errorf("%w: expected m, t and p parameters", ErrInvalidHash)
	}
	for i, dst := range []struct {
		name string
		val  *uint32
	}{
		{"m", &h.Memory},
		{"t", &h.Time},
		{"p", &h.Threads},
	} {
		raw, ok := strings.CutPrefix(params[i], dst.name+"=")
		if !ok {
			return nil, fmt.Errorf("%w: expected parameter %q", ErrInvalidHash, dst.name)
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s: %v", ErrInvalidHash, dst.name, err)
		}
		*dst.val = uint32(n)
	}

	if h.Salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if h.Key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrInvalidHash, err)
	}
	return h, nil
}
