package sandwich

import "strconv"

// DecodeToken converts a hex string into bytes, two characters per byte.
// Pairs that are not valid hex produce no byte and a trailing odd character
// is dropped.
func DecodeToken(token string) []byte {
	chars := []rune(token)

	data := make([]byte, 0, len(chars)/2)
	for i := 0; i+1 < len(chars); i += 2 {
		b, err := strconv.ParseUint(string(chars[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		data = append(data, byte(b))
	}
	return data
}
