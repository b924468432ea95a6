// Package randomness — derive.go выводит пер-игровые значения из payload батча.
package randomness

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// DeriveValue детерминированно выводит значение для игры с данным индексом
// из payload батча: первые 8 байт SHA3-256(payload ‖ uint32be(index))
// как big-endian uint64.
//
// Свойства:
//   - воспроизводимо: одна пара (payload, index) всегда даёт одно значение,
//     любой желающий может пересчитать и проверить результат;
//   - разные индексы дают попарно различные значения (с подавляющей
//     вероятностью) — игры одного батча не делят исход;
//   - до исполнения батча значение невычислимо, после — неподделываемо.
func DeriveValue(payload []byte, index int) uint64 {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))

	h := sha3.New256()
	h.Write(payload)
	h.Write(idx[:])
	sum := h.Sum(nil)

	return binary.BigEndian.Uint64(sum[:8])
}

// HouseMoveIndex отображает выведенное значение в ход дома:
// 0 = камень, 1 = бумага, 2 = ножницы.
func HouseMoveIndex(value uint64) int {
	return int(value % 3)
}
