package utils

import (
	"bytes"
	"encoding/json"
)

// UnmarshalWithNumbers keeps JSON numbers as json.Number so they re-encode byte for byte.
func UnmarshalWithNumbers(data []byte, output any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(output)
}
