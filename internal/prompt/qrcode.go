package prompt

import (
	"fmt"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// renderQRCode draws text as a QR code of unicode half blocks, two modules per
// line. Dark modules are left blank so the code scans on dark terminals.
func renderQRCode(text string) (string, error) {
	// qrterminal discards encoding errors
	if _, err := qr.Encode(text, qr.M); err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	var sb strings.Builder

	qrterminal.GenerateWithConfig(text, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         &sb,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      qrterminal.QUIET_ZONE,
	})

	return strings.TrimRight(sb.String(), "\n"), nil
}
