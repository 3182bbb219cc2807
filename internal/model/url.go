package model

import (
	"bytes"
	"encoding/json"
)

// ShortURL is a public mapping; its code is the encoded ID.
type ShortURL struct {
	ID  uint64 `json:"id"`  // store-assigned, input to the encoder
	URL string `json:"url"` // original long URL
}

// SecretShortURL is a mapping whose code is chosen at random.
type SecretShortURL struct {
	ID  string `json:"id"` // always starts with SecretPrefix
	URL string `json:"url"`
}

// SecretPrefix marks secret codes.
const SecretPrefix = "+"

// CreateURLRequest is the API request body
type CreateURLRequest struct {
	URL    string `json:"url"`
	Secret bool   `json:"secret,omitempty"`
}

// Response is the {status, message} envelope returned by the API
type Response struct {
	Status  int `json:"status"`
	Message any `json:"message"`
}

// ShortURLEntry is a public URL paired with its code.
type ShortURLEntry struct {
	Code string
	URL  string
}

// URLPage marshals to a JSON object of code -> URL that keeps the order of
// its entries.
type URLPage []ShortURLEntry

func (p URLPage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Code)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.URL)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
