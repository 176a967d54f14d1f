package dto

import "github.com/go-playground/validator/v10"

// Validate instancia compartida de go-playground/validator para los DTOs de entrada.
var Validate = validator.New()

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Lines detalle de líneas rechazadas (solo INSUFFICIENT_STOCK).
	Lines []ErrorLine `json:"lines,omitempty"`
}

// ErrorLine una línea rechazada en un lote de consumo.
type ErrorLine struct {
	ItemID    string `json:"item_id"`
	Location  string `json:"location"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}
