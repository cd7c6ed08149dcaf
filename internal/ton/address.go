package ton

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ValidateAddress checks if the TON address format is valid
func ValidateAddress(address string) bool {
	_, err := NormalizeAddress(address)
	return err == nil
}

// NormalizeAddress converts address to raw format (workchain:hex)
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)

	// Raw: 0:hex or -1:hex
	if wc, hash, ok := strings.Cut(address, ":"); ok {
		if wc != "0" && wc != "-1" {
			return "", errors.New("unknown workchain")
		}
		b, err := hex.DecodeString(hash)
		if err != nil || len(b) != 32 {
			return "", errors.New("invalid address hash")
		}
		return wc + ":" + strings.ToLower(hash), nil
	}

	// User-friendly: 48 chars of base64 (url-safe or standard)
	if len(address) != 48 {
		return "", errors.New("unknown address format")
	}
	decoded, err := base64.URLEncoding.DecodeString(address)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(address)
	}
	if err != nil {
		return "", fmt.Errorf("invalid address format: %w", err)
	}

	// 1 byte flags + 1 byte workchain + 32 bytes hash + 2 bytes CRC
	if len(decoded) != 36 {
		return "", errors.New("invalid address length")
	}
	if crc16(decoded[:34]) != uint16(decoded[34])<<8|uint16(decoded[35]) {
		return "", errors.New("address checksum mismatch")
	}

	workchain := int8(decoded[1])
	return fmt.Sprintf("%d:%s", workchain, hex.EncodeToString(decoded[2:34])), nil
}

// crc16 is CRC-16/XMODEM, the checksum of user-friendly addresses.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
