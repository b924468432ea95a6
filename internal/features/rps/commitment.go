// Package rps — commitment.go: криптографическое обязательство хода.
// Игрок публикует hash(ход, соль) ДО того, как известен исход,
// и потом не может поменять ход задним числом.
package rps

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// SaltSize — длина соли в байтах. Ровно 32 байта (256 бит):
// пространство ходов всего из трёх вариантов, и без длинной соли
// обязательство вскрывалось бы перебором за секунды.
const SaltSize = 32

// ComputeCommitment строит обязательство фиксированного формата:
// hex(SHA-256(каноническое имя хода ‖ ":" ‖ hex-соль в нижнем регистре)).
//
// Формат зафиксирован, чтобы любой мог воспроизвести хеш снаружи:
//
//	echo -n "ROCK:9f8e...64-hex-символа" | sha256sum
func ComputeCommitment(move Move, salt []byte) string {
	h := sha256.Sum256([]byte(string(move) + ":" + hex.EncodeToString(salt)))
	return hex.EncodeToString(h[:])
}

// GenerateCommitment создаёт пару (обязательство, соль) для хода.
// Удобство для игроков без своих инструментов; осторожные игроки
// считают хеш сами и присылают только его.
func GenerateCommitment(move Move) (commitmentHash, saltHex string, err error) {
	if !move.Valid() {
		return "", "", common.ErrInvalidMove
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("ошибка генерации соли: %w", err)
	}
	return ComputeCommitment(move, salt), hex.EncodeToString(salt), nil
}

// ParseSalt разбирает hex-соль и проверяет длину.
func ParseSalt(saltHex string) ([]byte, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != SaltSize {
		return nil, common.ErrInvalidSalt
	}
	return salt, nil
}

// ValidateCommitmentHash проверяет формат входящего обязательства:
// ровно 64 hex-символа (SHA-256 в нижнем регистре).
func ValidateCommitmentHash(s string) error {
	if len(s) != sha256.Size*2 {
		return common.ErrInvalidCommitmentHash
	}
	if _, err := hex.DecodeString(s); err != nil {
		return common.ErrInvalidCommitmentHash
	}
	return nil
}
