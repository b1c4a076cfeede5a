package events

import (
	"strconv"

	"launchpad/crypto"
)

func formatAddr(addr [20]byte) string {
	return crypto.FormatAccount(addr)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
