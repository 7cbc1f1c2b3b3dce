// Package tokens normaliza la salida de la generación de tokens de Warp 10
// (dos esquemas históricos) en un TokenSet con lookup por rol.
package tokens

import "strings"

// Roles que el fixture expone.
const (
	RoleRead  = "ReadToken"
	RoleWrite = "WriteToken"
)

// TokenRecord es una credencial con nombre.
type TokenRecord struct {
	// Role identifica el uso del token ("ReadToken", "WriteToken"...). Se compara sin mayúsculas.
	Role string
	// Token es el token opaco tal cual lo emitió Warp 10.
	Token string
	// Ident es el identificador opaco de aplicación/cliente asociado (puede venir vacío).
	Ident string
}

// TokenSet es la colección ordenada producida por una sola invocación.
type TokenSet struct {
	records []TokenRecord
}

// NewTokenSet copia records para que el set no comparta memoria con el caller.
func NewTokenSet(records ...TokenRecord) TokenSet {
	cp := make([]TokenRecord, len(records))
	copy(cp, records)
	return TokenSet{records: cp}
}

// Len devuelve la cantidad de registros.
func (s TokenSet) Len() int { return len(s.records) }

// Records devuelve una copia de los registros en orden.
func (s TokenSet) Records() []TokenRecord {
	cp := make([]TokenRecord, len(s.records))
	copy(cp, s.records)
	return cp
}

// Lookup devuelve el primer registro cuyo rol coincide (case-insensitive).
// "read" y "write" que no coinciden literalmente se buscan como RoleRead y RoleWrite.
func (s TokenSet) Lookup(role string) (TokenRecord, bool) {
	if role == "" {
		return TokenRecord{}, false
	}
	if r, ok := s.find(role); ok {
		return r, true
	}
	if alias, ok := roleAliases[strings.ToLower(role)]; ok {
		return s.find(alias)
	}
	return TokenRecord{}, false
}

func (s TokenSet) find(role string) (TokenRecord, bool) {
	for _, r := range s.records {
		if strings.EqualFold(r.Role, role) {
			return r, true
		}
	}
	return TokenRecord{}, false
}

// roleAliases son los nombres de campo del esquema legacy.
var roleAliases = map[string]string{
	"read":  RoleRead,
	"write": RoleWrite,
}
