package domain

import "time"

// OTPChallenge es el registro de un codigo pendiente para un identificador.
// Solo puede existir un challenge vivo por identificador: una nueva solicitud
// lo sobreescribe (codigo nuevo, attempts en 0, is_used en false).
type OTPChallenge struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"-"`
	Type       string    `json:"type"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	IsUsed     bool      `json:"is_used"`
}
