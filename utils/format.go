package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// AppName prefixes the status lines.
const AppName = "✋ SKINFILTER"

var colors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// DecorateText shows the message types in different colors.
// Unknown message types are returned undecorated.
func DecorateText(s string, msgType MessageType) string {
	color, ok := colors[msgType]
	if !ok {
		return s
	}
	return color + s + DefaultColor
}

// StatusLine prefixes the message, colored by its type, with the application name.
func StatusLine(msg string, msgType MessageType) string {
	return DecorateText(AppName, StatusMessage) + " " + DecorateText(msg, msgType)
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	var (
		secs  = math.Mod(d.Seconds(), 60)
		mins  = int64(d.Minutes()) % 60
		hours = int64(d.Hours()) % 24
	)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", mins, secs)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs", hours, mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", int64(d.Hours())/24, hours, mins, secs)
}
