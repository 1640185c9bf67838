package utils

// ValidBaudRates are the serial rates accepted for the tag reader port.
var ValidBaudRates = []uint{2400, 4800, 9600, 19200, 38400, 57600, 115200}

// ValidateBaudRate validates that the baudrate is in the list of valid values.
func ValidateBaudRate(validBaudRates []uint, baudRate int) bool {
	if baudRate <= 0 {
		return false
	}
	for _, val := range validBaudRates {
		if val == uint(baudRate) {
			return true
		}
	}
	return false
}
