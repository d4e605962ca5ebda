package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed keys.
// Version suffix enables future algorithm migration.
const (
	DomainAnswer = "prolly/answer/v1"
	DomainGoal   = "prolly/goal/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AnswerKey computes the order-independent identity of an answer object.
// Two answers with the same variables, values and tags have the same key
// regardless of map iteration order.
func AnswerKey(answer Object) (string, error) {
	canonical, err := MarshalCanonical(answer)
	if err != nil {
		return "", fmt.Errorf("AnswerKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAnswer, canonical), nil
}

// GoalKey computes the identity of a goal shape. Callers encode variables
// by first-occurrence position so that goals equal up to renaming share a
// key.
func GoalKey(goal Value) (string, error) {
	canonical, err := MarshalCanonical(goal)
	if err != nil {
		return "", fmt.Errorf("GoalKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGoal, canonical), nil
}

// MustAnswerKey is like AnswerKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAnswerKey(answer Object) string {
	key, err := AnswerKey(answer)
	if err != nil {
		panic(err)
	}
	return key
}
