package core

import (
	"strconv"
	"strings"
)

// ParseInstallment splits an installment label of the form "n/m" into its
// sequence number and plan length. ok is false for anything that is not a
// well-formed label with 1 <= n <= m.
func ParseInstallment(label string) (seq, total int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(label), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if seq < 1 || total < 1 || seq > total {
		return 0, 0, false
	}
	return seq, total, true
}
