package entity

import "time"

// Store representa una tienda física con coordenadas (usadas por la asistencia geolocalizada).
type Store struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	ImageURL  *string
	CreatedAt time.Time
}
