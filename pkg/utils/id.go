package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// RoomCodeAlphabet is the symbol set room codes are drawn from.
const RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomCodeLength is the number of symbols in a room code.
const RoomCodeLength = 5

var alphabetSize = big.NewInt(int64(len(RoomCodeAlphabet)))

// GenerateRoomCode draws RoomCodeLength symbols from RoomCodeAlphabet
// independently and with replacement.
func GenerateRoomCode() string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(fmt.Sprintf("utils: reading random source: %v", err))
		}
		b[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(b)
}

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateInstanceID identifies this process on the distributed event bus.
func GenerateInstanceID() string {
	return "instance_" + uuid.NewString()[:8]
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}

// ObjectKey builds a time prefixed object key, optionally under a folder.
func ObjectKey(folder, filename string, at time.Time) string {
	key := fmt.Sprintf("%d-%s", at.UnixMilli(), filename)
	if folder == "" {
		return key
	}
	return folder + "/" + key
}
