package kdf_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"

	"argon2hash/kdf"
)

func fixedSalt(n uint32) []byte {
	return bytes.Repeat([]byte{0x5a}, int(n))
}

func testParams() kdf.Params {
	return kdf.Params{
		Variant: kdf.Argon2id,
		SaltLen: 16,
		KeyLen:  32,
		Time:    1,
		Memory:  64,
		Threads: 2,
	}
}

func TestHasherHash(t *testing.T) {
	h := &kdf.Hasher{Rand: fixedSalt, Log: slogt.New(t)}

	for _, v := range []kdf.Variant{kdf.Argon2d, kdf.Argon2i, kdf.Argon2id} {
		t.Run(v.String(), func(t *testing.T) {
			p := testParams()
			p.Variant = v

			got, err := h.Hash(p, []byte("hunter2"))
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}

			want := kdf.Key(v, []byte("hunter2"), fixedSalt(16), nil, 1, 64, 2, 32)
			if !bytes.Equal(got.Key, want) {
				t.Errorf("key = %x, want %x", got.Key, want)
			}

			enc := got.Encode()
			prefix := "$" + v.String() + "$v=19$m=64,t=1,p=2$WlpaWlpaWlpaWlpaWlpaWg$"
			if !strings.HasPrefix(enc, prefix) {
				t.Errorf("encoded = %q, want prefix %q", enc, prefix)
			}
		})
	}
}

func TestHasherDefaultRand(t *testing.T) {
	h := &kdf.Hasher{Log: slogt.New(t)}

	a, err := h.Hash(testParams(), []byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash(testParams(), []byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if len(a.Salt) != 16 {
		t.Errorf("salt length = %d, want 16", len(a.Salt))
	}
	if bytes.Equal(a.Salt, b.Salt) {
		t.Error("two hashes share a salt")
	}
	if bytes.Equal(a.Key, b.Key) {
		t.Error("two hashes with different salts share a key")
	}
}

func TestHasherSecret(t *testing.T) {
	h := &kdf.Hasher{Rand: fixedSalt, Log: slogt.New(t)}

	plain, err := h.Hash(testParams(), []byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	p := testParams()
	p.Secret = []byte("server-side pepper")
	keyed, err := h.Hash(p, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if bytes.Equal(plain.Key, keyed.Key) {
		t.Error("secret did not change the key")
	}
	if string(p.Secret) != "server-side pepper" {
		t.Error("Hash modified the caller's secret")
	}
}

func TestHasherShortSalt(t *testing.T) {
	h := &kdf.Hasher{
		Rand: func(n uint32) []byte { return make([]byte, n-1) },
		Log:  slogt.New(t),
	}
	if _, err := h.Hash(testParams(), []byte("hunter2")); err == nil {
		t.Fatal("expected error for short salt source")
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*kdf.Params)
	}{
		{"salt too short", func(p *kdf.Params) { p.SaltLen = 7 }},
		{"zero salt", func(p *kdf.Params) { p.SaltLen = 0 }},
		{"hash too short", func(p *kdf.Params) { p.KeyLen = 3 }},
		{"zero iterations", func(p *kdf.Params) { p.Time = 0 }},
		{"zero threads", func(p *kdf.Params) { p.Threads = 0 }},
		{"too many threads", func(p *kdf.Params) { p.Threads = kdf.MaxThreads + 1; p.Memory = 1<<32 - 1 }},
		{"memory below 8 per thread", func(p *kdf.Params) { p.Threads = 4; p.Memory = 31 }},
		{"zero memory", func(p *kdf.Params) { p.Memory = 0 }},
		{"memory above ceiling", func(p *kdf.Params) { p.Memory = kdf.MaxMemory + 1 }},
		{"maximum argon2 memory", func(p *kdf.Params) { p.Memory = 1<<32 - 1 }},
		{"unknown variant", func(p *kdf.Params) { p.Variant = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.modify(&p)
			if err := p.Validate(); !errors.Is(err, kdf.ErrInvalidParams) {
				t.Errorf("Validate() = %v, want ErrInvalidParams", err)
			}

			h := &kdf.Hasher{Rand: fixedSalt, Log: slogt.New(t)}
			if _, err := h.Hash(p, []byte("hunter2")); !errors.Is(err, kdf.ErrInvalidParams) {
				t.Errorf("Hash() error = %v, want ErrInvalidParams", err)
			}
		})
	}

	if err := testParams().Validate(); err != nil {
		t.Errorf("valid params rejected: %v", err)
	}
	p := testParams()
	p.Memory = kdf.MaxMemory
	if err := p.Validate(); err != nil {
		t.Errorf("memory at ceiling rejected: %v", err)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    kdf.Variant
		wantErr bool
	}{
		{"argon2id", kdf.Argon2id, false},
		{"ARGON2I", kdf.Argon2i, false},
		{"Argon2D", kdf.Argon2d, false},
		{"argon2x", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := kdf.ParseVariant(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	h := &kdf.Hasher{Log: slogt.New(t)}
	p := testParams()
	p.Variant = kdf.Argon2d
	p.KeyLen = 24
	p.SaltLen = 12

	orig, err := h.Hash(p, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	got, err := kdf.Decode(orig.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Variant != kdf.Argon2d || got.Version != kdf.Version ||
		got.Memory != 64 || got.Time != 1 || got.Threads != 2 {
		t.Errorf("decoded params = %+v", got)
	}
	if !bytes.Equal(got.Salt, orig.Salt) || !bytes.Equal(got.Key, orig.Key) {
		t.Error("decoded salt or key differs from original")
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"argon2id$v=19$m=64,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2x$v=19$m=64,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=16$m=64,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$19$m=64,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$t=1,m=64,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=-1,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=2$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=2$c2FsdA$aGFzaA==",
	} {
		if _, err := kdf.Decode(in); !errors.Is(err, kdf.ErrInvalidHash) {
			t.Errorf("Decode(%q) = %v, want ErrInvalidHash", in, err)
		}
	}
}
