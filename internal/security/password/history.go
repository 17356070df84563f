package password

import "time"

// HistoryDepth limita la cantidad de hashes históricos retenidos por usuario.
const HistoryDepth = 5

// HistoryEntry es un hash histórico con su fecha de alta.
type HistoryEntry struct {
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// InHistory verifica el plaintext candidato contra cada hash histórico.
// Corta en el primer match. O(HistoryDepth) verificaciones argon2 como máximo.
func InHistory(plain string, history []HistoryEntry) bool {
	for _, h := range history {
		if Verify(plain, h.Hash) {
			return true
		}
	}
	return false
}

// AppendHistory agrega el hash nuevo y trunca al límite (FIFO: cae el más viejo).
// No muta el slice de entrada.
func AppendHistory(newHash string, history []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, HistoryEntry{Hash: newHash, CreatedAt: time.Now().UTC()})
	if len(out) > HistoryDepth {
		out = out[len(out)-HistoryDepth:]
	}
	return out
}
