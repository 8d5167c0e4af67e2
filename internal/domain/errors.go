package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// Son fallos de CONFIGURACIÓN: el caller debió suministrar tablas
// completas y no lo hizo. Se distinguen de los datos incompletos por
// SKU (costo o desi ausentes), que nunca producen error: el registro se
// emite igual con sus flags HasCostData/HasSizeData en false.
var (
	ErrRateUnavailable = errors.New("moneda ausente de la tabla de tasas")
	ErrRouteNotFound   = errors.New("ruta ausente de la tabla de envíos")
	ErrTierNotFound    = errors.New("ningún tramo cubre el peso solicitado")
	ErrInvalidInput    = errors.New("entrada inválida")
)
