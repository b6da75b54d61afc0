package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"argon2hash/kdf"
)

// Defaults for fields left empty
const (
	DefaultAlgorithm  = kdf.Argon2id
	DefaultSaltLen    = 16
	DefaultHashLen    = 32
	DefaultIterations = 18
	DefaultMemoryKiB  = 62500
	DefaultThreads    = 1
)

const (
	promptPassword       = "Enter the password you would like to hash: "
	promptPasswordBase64 = "Was the password base64 encoded? (y|n) [default: n] "
	promptAlgorithm      = "Which algorithm should be used? (argon2id|argon2i|argon2d) [default: argon2id] "
	promptSecret         = "Enter a base64-encoded secret to be used for hashing (leave blank for no secret): "
)

// uintField is a prompt for an unsigned 32-bit parameter with a default.
type uintField struct {
	question string
	def      uint32
	invalid  string
}

var (
	saltLenField    = uintField{"How long should the salt be (in bytes)?", DefaultSaltLen, "Invalid salt length"}
	hashLenField    = uintField{"How long should the hash be (in bytes)?", DefaultHashLen, "Invalid hash length"}
	iterationsField = uintField{"How many iterations should be required for hashing?", DefaultIterations, "Invalid iteration count"}
	memoryField     = uintField{"How much memory should be required for hashing (in KiB)?", DefaultMemoryKiB, "Invalid memory cost"}
	threadsField    = uintField{"How many threads should be required for hashing?", DefaultThreads, "Invalid thread count"}
)

func (f uintField) prompt() string {
	return fmt.Sprintf("%s (positive integer) [default: %d] ", f.question, f.def)
}

func (f uintField) convert(line []byte) (uint32, error) {
	if len(line) == 0 {
		return f.def, nil
	}
	n, err := strconv.ParseUint(string(line), 10, 32)
	if err != nil {
		return 0, invalid(f.invalid)
	}
	return uint32(n), nil
}

func (f uintField) ask(p *Prompter) (uint32, error) {
	return ask(p, f.prompt(), false, f.convert)
}

// collect runs every prompt in order. On error, anything already collected
// has been destroyed.
func collect(p *Prompter) (password *SecretBuffer, cfg *HashConfig, err error) {
	pw, err := ask(p, promptPassword, true, passwordConverter(p))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			pw.Destroy()
		}
	}()

	cfg = &HashConfig{}
	if cfg.Algorithm, err = ask(p, promptAlgorithm, false, convertAlgorithm); err != nil {
		return nil, nil, err
	}
	for _, step := range []struct {
		field uintField
		dst   *uint32
	}{
		{saltLenField, &cfg.SaltLen},
		{hashLenField, &cfg.HashLen},
		{iterationsField, &cfg.Iterations},
		{memoryField, &cfg.MemoryKiB},
		{threadsField, &cfg.Threads},
	} {
		if *step.dst, err = step.field.ask(p); err != nil {
			return nil, nil, err
		}
	}
	if cfg.Secret, err = ask(p, promptSecret, true, convertSecret); err != nil {
		return nil, nil, err
	}
	return pw, cfg, nil
}

var errLineBreakInBase64 = errors.New("line break in base64 input")

// passwordConverter rejects empty passwords, then asks whether the password
// was base64 encoded and decodes it if so. The result is a private copy.
func passwordConverter(p *Prompter) func(line []byte) (*SecretBuffer, error) {
	return func(line []byte) (*SecretBuffer, error) {
		if len(line) == 0 {
			return nil, invalid("Password cannot be empty!")
		}

		encoded, err := ask(p, promptPasswordBase64, false, convertYesNo)
		if err != nil {
			return nil, err
		}
		if !encoded {
			return copySecret(line), nil
		}

		pw, err := decodeBase64(line)
		if err != nil {
			return nil, invalid("Password is not valid base64!")
		}
		return pw, nil
	}
}

func convertYesNo(line []byte) (bool, error) {
	switch strings.ToLower(string(line)) {
	case "", "n", "no":
		return false, nil
	case "y", "yes":
		return true, nil
	}
	return false, invalid(`Please enter "y" or "n"`)
}

func convertAlgorithm(line []byte) (kdf.Variant, error) {
	if len(line) == 0 {
		return DefaultAlgorithm, nil
	}
	v, err := kdf.ParseVariant(string(line))
	if err != nil {
		return 0, invalid("Invalid algorithm option")
	}
	return v, nil
}

// convertSecret returns nil for a blank line.
func convertSecret(line []byte) (*SecretBuffer, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}
	s, err := decodeBase64(line)
	if err != nil {
		return nil, invalid("Secret is not valid base64!")
	}
	return s, nil
}

// decodeBase64 decodes standard, padded base64 into a new secret buffer.
// Partial output is zeroed on failure. Embedded CR or LF bytes are rejected;
// encoding/base64 would otherwise skip them.
func decodeBase64(src []byte) (*SecretBuffer, error) {
	if bytes.ContainsAny(src, "\r\n") {
		return nil, errLineBreakInBase64
	}
	dst := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(dst, src)
	if err != nil {
		zeroBytes(dst)
		return nil, err
	}
	zeroBytes(dst[n:])
	return newSecretBuffer(dst[:n]), nil
}
