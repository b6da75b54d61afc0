package main

import (
	"fmt"
	"log/slog"

	"argon2hash/kdf"
)

// Hasher turns a config and password into an encoded hash.
type Hasher interface {
	Hash(cfg *HashConfig, password []byte) (string, error)
}

// argon2Hasher hashes with the kdf package.
type argon2Hasher struct {
	hasher *kdf.Hasher
}

func newArgon2Hasher(log *slog.Logger) *argon2Hasher {
	return &argon2Hasher{hasher: &kdf.Hasher{Log: log}}
}

func (h *argon2Hasher) Hash(cfg *HashConfig, password []byte) (string, error) {
	hash, err := h.hasher.Hash(cfg.params(), password)
	if err != nil {
		return "", err
	}
	return hash.Encode(), nil
}

// session is one interactive run: collect, hash once, print.
type session struct {
	prompter *Prompter
	hasher   Hasher
	log      *slog.Logger
}

// run returns only after the password and secret buffers are zeroed.
func (s *session) run() error {
	password, cfg, err := collect(s.prompter)
	if err != nil {
		return err
	}
	defer password.Destroy()
	defer cfg.Secret.Destroy()

	s.log.Debug("collected hashing parameters", slog.Any("config", cfg))

	if err := s.prompter.println(); err != nil {
		return err
	}
	if err := s.prompter.println("Hashing..."); err != nil {
		return err
	}
	if err := s.prompter.flush(); err != nil {
		return err
	}

	encoded, err := s.hasher.Hash(cfg, password.Bytes())
	if err != nil {
		return fmt.Errorf("argon2 hashing failed: %w", err)
	}

	if err := s.prompter.println("Hash:", encoded); err != nil {
		return err
	}
	return s.prompter.flush()
}
