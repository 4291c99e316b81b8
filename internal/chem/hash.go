package chem

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// HashString returns the lowercase hex SHA-256 digest of s.  Empty or
// whitespace-only input is rejected: a blank string is never a valid
// identity source for a molecule, reaction or rule.
func HashString(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New(errors.ErrCodeEmptyInput, "cannot hash an empty string")
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:]), nil
}

// Hash computes the identity digest of an arbitrary decoded value.  Records
// loaded from loose JSON carry interface{} fields, so the textual-kind check
// happens here rather than at the call sites.
func Hash(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf(errors.ErrCodeTypeKind, "cannot hash %T: input must be a string", v)
	}
	return HashString(s)
}
