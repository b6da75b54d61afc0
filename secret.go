package main

import "runtime"

// zeroBytes overwrites a byte slice with zeros
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// SecretBuffer owns password or secret bytes until Destroy is called.
// Nobody else may keep a reference to the backing array.
type SecretBuffer struct {
	b []byte
}

// allocHook, when set, is told about every new buffer so zeroing can be
// checked after the fact.
var allocHook func(s *SecretBuffer, b []byte)

// newSecretBuffer takes ownership of b.
func newSecretBuffer(b []byte) *SecretBuffer {
	s := &SecretBuffer{b: b}
	if allocHook != nil {
		allocHook(s, b)
	}
	return s
}

// copySecret returns a buffer holding a private copy of b. The caller remains
// responsible for zeroing b.
func copySecret(b []byte) *SecretBuffer {
	c := make([]byte, len(b))
	copy(c, b)
	return newSecretBuffer(c)
}

// Bytes returns the buffer's contents. The slice is only valid until Destroy.
func (s *SecretBuffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *SecretBuffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Destroy zeroes the buffer and drops it. Safe on nil and safe to repeat.
func (s *SecretBuffer) Destroy() {
	if s == nil {
		return
	}
	zeroBytes(s.b)
	s.b = nil
}

// String keeps secrets out of fmt output.
func (s *SecretBuffer) String() string {
	return "[redacted]"
}

// GoString keeps secrets out of %#v output.
func (s *SecretBuffer) GoString() string {
	return "[redacted]"
}
