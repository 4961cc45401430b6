// Package emulator stands in for the ESP32-CAM on a bench. It answers every
// capture command with the firmware's reply sequence: a start message
// announcing the base64 length, the chunks and an end message, all tagged
// with the command's correlation id.
package emulator
