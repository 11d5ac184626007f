package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters.
const (
	DefaultIterations = 200_000
	MinIterations     = 100_000
	saltLen           = 16
	keyLen            = 32
	hashAlgorithm     = "pbkdf2_sha256"
)

// HashPassword hashes a plaintext password with the default iteration count.
// Format: pbkdf2_sha256$<iterations>$<salt>$<key> (base64, no padding).
func HashPassword(password string) (string, error) {
	return HashPasswordWithIterations(password, DefaultIterations)
}

// HashPasswordWithIterations hashes password with an explicit PBKDF2 cost.
// The cost is stored in the encoded string so it can be raised later
// without invalidating existing hashes.
func HashPasswordWithIterations(password string, iterations int) (string, error) {
	if iterations < MinIterations {
		return "", fmt.Errorf("pbkdf2 iterations %d below minimum %d", iterations, MinIterations)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		hashAlgorithm,
		iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a plaintext password against an encoded hash.
// The key comparison is constant-time.
func VerifyPassword(password, encodedHash string) (bool, error) {
	iterations, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha256.New)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// decodeHash parses the pbkdf2_sha256 format into its components.
func decodeHash(encoded string) (iterations int, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 { //nolint:mnd // format has exactly 4 $-delimited parts
		return 0, nil, nil, ErrInvalidHash
	}

	if parts[0] != hashAlgorithm {
		return 0, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[0])
	}

	iterations, err = strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return 0, nil, nil, fmt.Errorf("%w: bad iteration count", ErrInvalidHash)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: decoding salt", ErrInvalidHash)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: decoding key", ErrInvalidHash)
	}

	return iterations, salt, key, nil
}

// dummyPassword is hashed at service start; the hash is verified against
// when the username is unknown.
const dummyPassword = "medrecord-timing-equaliser"
