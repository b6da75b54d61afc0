package main

import (
	"log/slog"

	"argon2hash/kdf"
)

// HashConfig holds the validated answers, minus the password.
type HashConfig struct {
	Algorithm  kdf.Variant
	SaltLen    uint32 // bytes
	HashLen    uint32 // bytes
	Iterations uint32
	MemoryKiB  uint32
	Threads    uint32

	// Secret is the optional Argon2 secret, nil when none was given.
	Secret *SecretBuffer
}

// params converts the config to kdf parameters. The returned Secret aliases
// cfg.Secret and is only valid until it is destroyed.
func (cfg *HashConfig) params() kdf.Params {
	return kdf.Params{
		Variant: cfg.Algorithm,
		SaltLen: cfg.SaltLen,
		KeyLen:  cfg.HashLen,
		Time:    cfg.Iterations,
		Memory:  cfg.MemoryKiB,
		Threads: cfg.Threads,
		Secret:  cfg.Secret.Bytes(),
	}
}

// LogValue reports whether a secret is set, never its contents.
func (cfg *HashConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("algorithm", cfg.Algorithm.String()),
		slog.Uint64("salt_len", uint64(cfg.SaltLen)),
		slog.Uint64("hash_len", uint64(cfg.HashLen)),
		slog.Uint64("iterations", uint64(cfg.Iterations)),
		slog.Uint64("memory_kib", uint64(cfg.MemoryKiB)),
		slog.Uint64("threads", uint64(cfg.Threads)),
		slog.Bool("secret", cfg.Secret.Len() > 0),
	)
}
