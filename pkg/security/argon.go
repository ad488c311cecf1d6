package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argonPrefix = "$argon2id$"

var errArgonFormat = errors.New("invalid argon2id hash format")

type ArgonHash struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func New() *ArgonHash {
	return &ArgonHash{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hash returns a PHC-style encoded argon2id hash of p with a fresh salt
func (a *ArgonHash) Hash(p string) (string, error) {
	salt, err := genRandByt(a.SaltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(p), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, a.Memory, a.Iterations, a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Compare checks p against the encoded hash e. The parameters stored in e win
// over the ones on a, so old hashes verify after the defaults change.
func (a *ArgonHash) Compare(p, e string) (bool, error) {
	h, err := parseArgon(e)
	if err != nil {
		return false, err
	}

	calcHash := argon2.IDKey([]byte(p), h.salt, h.iterations, h.memory, h.parallelism, uint32(len(h.hash)))

	return subtle.ConstantTimeCompare(h.hash, calcHash) == 1, nil
}

type argonHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// parseArgon decodes a full $argon2id$v=..$m=..,t=..,p=..$salt$hash string
func parseArgon(e string) (*argonHash, error) {
	parts := strings.Split(e, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errArgonFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, errArgonFormat
	}

	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	h := &argonHash{}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return nil, errArgonFormat
	}

	if h.memory == 0 || h.iterations == 0 || h.parallelism == 0 {
		return nil, errArgonFormat
	}

	var err error

	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.salt) == 0 {
		return nil, errArgonFormat
	}

	if h.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.hash) == 0 {
		return nil, errArgonFormat
	}

	return h, nil
}

func genRandByt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return b, nil
}
