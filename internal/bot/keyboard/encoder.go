package keyboard

import (
	"fmt"
	"strings"
)

// CallbackDataLimitBytes is the Telegram Bot API limit on callback payloads.
const CallbackDataLimitBytes = 64

// ValidateData rejects callback payloads Telegram would refuse to deliver.
func ValidateData(data string) error {
	if data == "" {
		return fmt.Errorf("callback data is empty")
	}

	if len(data) > CallbackDataLimitBytes {
		return fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(data))
	}

	return nil
}

// NormalizeData strips the telebot unique-prefix framing from raw callback
// data, yielding the plain tag the conversation states switch on.
func NormalizeData(data string) string {
	data = strings.TrimPrefix(data, "\f")

	if idx := strings.Index(data, "|"); idx != -1 {
		return data[:idx]
	}

	return data
}
