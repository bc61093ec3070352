package dto

import (
	"errors"
	"strings"
	"unicode"
)

// MaxTokenIDLength acota el tamaño de un token id recibido por HTTP
const MaxTokenIDLength = 128

// TokenRequest representa la request de lookup de un token
type TokenRequest struct {
	// TokenID es el identificador CLOB del token (ej: "71321045679252212594...")
	TokenID string `json:"token_id"`
}

// NewTokenRequest crea una request desde el path parameter
func NewTokenRequest(tokenID string) (*TokenRequest, error) {
	request := &TokenRequest{
		TokenID: strings.TrimSpace(tokenID),
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return request, nil
}

// Validate valida la request
func (r *TokenRequest) Validate() error {
	if r.TokenID == "" {
		return errors.New("token id is required")
	}

	if len(r.TokenID) > MaxTokenIDLength {
		return errors.New("token id too long")
	}

	for _, c := range r.TokenID {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return errors.New("token id contains invalid characters")
		}
	}

	return nil
}
