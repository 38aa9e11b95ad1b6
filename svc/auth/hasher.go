package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// PasswordHasher produces and checks salted one-way password hashes.
// Compare returns ErrPasswordMismatch on a wrong password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// NewPasswordHasher returns a hasher that writes new hashes with kind and
// verifies any supported format, so switching kinds keeps old hashes valid.
func NewPasswordHasher(kind string, bcryptCost int) (PasswordHasher, error) {
	b := BcryptHasher{Cost: bcryptCost}
	a := Argon2Hasher{Params: DefaultArgon2Params()}

	switch kind {
	case "", HasherBcrypt:
		return dispatchHasher{primary: b, bcrypt: b, argon: a}, nil
	case HasherArgon2id:
		return dispatchHasher{primary: a, bcrypt: b, argon: a}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, kind)
	}
}

type dispatchHasher struct {
	primary PasswordHasher
	bcrypt  BcryptHasher
	argon   Argon2Hasher
}

func (d dispatchHasher) Hash(password string) (string, error) {
	return d.primary.Hash(password)
}

func (d dispatchHasher) Compare(hash, password string) error {
	switch hashFormat(hash) {
	case HasherBcrypt:
		return d.bcrypt.Compare(hash, password)
	case HasherArgon2id:
		return d.argon.Compare(hash, password)
	default:
		return ErrUnsupportedHash
	}
}

// Decoys returns one throwaway hash per accepted format.
func (d dispatchHasher) Decoys() ([]string, error) {
	b, err := d.bcrypt.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	a, err := d.argon.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return []string{b, a}, nil
}

// decoyHasher is implemented by hashers that verify more than one format.
type decoyHasher interface {
	Decoys() ([]string, error)
}

// decoyHashes prepares the hashes compared against on failed logins.
func decoyHashes(h PasswordHasher) ([]string, error) {
	if d, ok := h.(decoyHasher); ok {
		return d.Decoys()
	}
	one, err := h.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return []string{one}, nil
}

// hashFormat names the scheme of an encoded hash, or "" when unrecognized.
func hashFormat(hash string) string {
	switch {
	case strings.HasPrefix(hash, "$2"):
		return HasherBcrypt
	case strings.HasPrefix(hash, argon2Prefix):
		return HasherArgon2id
	default:
		return ""
	}
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Join(ErrHashingFailed, err)
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return errors.Join(ErrUnsupportedHash, err)
	}
}

const argon2Prefix = "argon2id$"

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// Argon2Hasher encodes hashes as argon2id$v=19$m=..,t=..,p=..$salt$hash with
// unpadded standard base64.
type Argon2Hasher struct {
	Params Argon2Params
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	p := h.Params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(ErrHashingFailed, err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key),
	), nil
}

func (h Argon2Hasher) Compare(hash, password string) error {
	p, salt, want, err := parseArgon2(hash)
	if err != nil {
		return err
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func parseArgon2(s string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(s, "$")
	if len(parts) != 5 || parts[0]+"$" != argon2Prefix {
		return p, nil, nil, ErrUnsupportedHash
	}
	if v, err := strconv.Atoi(strings.TrimPrefix(parts[1], "v=")); err != nil || v != argon2.Version {
		return p, nil, nil, ErrUnsupportedHash
	}

	for kv := range strings.SplitSeq(parts[2], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, ErrUnsupportedHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return p, nil, nil, ErrUnsupportedHash
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n == 0 || n > 255 {
				return p, nil, nil, ErrUnsupportedHash
			}
			p.Parallelism = uint8(n)
		default:
			return p, nil, nil, ErrUnsupportedHash
		}
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrUnsupportedHash
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[3])
	if err != nil {
		return p, nil, nil, ErrUnsupportedHash
	}
	key, err := enc.DecodeString(parts[4])
	if err != nil || len(key) < 16 {
		return p, nil, nil, ErrUnsupportedHash
	}
	return p, salt, key, nil
}
