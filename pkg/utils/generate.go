package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ==================== ORDER NUMBER ====================

// MerchantOrderNoLength is 14 (timestamp) + 6 (user part) + 6 (random).
const MerchantOrderNoLength = 26

var merchantOrderNoPattern = regexp.MustCompile(`^\d{26}$`)

// GenerateMerchantOrderNo returns a fresh merchant order number for userID.
// Call it once per payment attempt and reuse the value on retries.
func GenerateMerchantOrderNo(userID uuid.UUID) string {
	return merchantOrderNoAt(userID, time.Now())
}

func merchantOrderNoAt(userID uuid.UUID, now time.Time) string {
	userPart := binary.BigEndian.Uint32(userID[:4]) % 1_000_000

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the OS source is broken
		panic(fmt.Sprintf("read random: %v", err))
	}

	return fmt.Sprintf("%s%06d%06d", now.Format("20060102150405"), userPart, n.Int64())
}

// IsMerchantOrderNo reports whether s has the shape GenerateMerchantOrderNo produces.
func IsMerchantOrderNo(s string) bool {
	if !merchantOrderNoPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("20060102150405", s[:14])
	return err == nil
}
