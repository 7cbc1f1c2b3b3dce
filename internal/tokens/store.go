package tokens

// Store envuelve un TokenSet y es de solo lectura después de construido.
// El valor cero es un store vacío: todas las consultas devuelven ausencia.
type Store struct {
	set TokenSet
}

// NewStore crea un Store sobre set.
func NewStore(set TokenSet) *Store {
	return &Store{set: set}
}

// TokenForRole devuelve el token del primer registro con ese rol.
func (s *Store) TokenForRole(role string) (string, bool) {
	if s == nil {
		return "", false
	}
	r, ok := s.set.Lookup(role)
	if !ok {
		return "", false
	}
	return r.Token, true
}

// ReadToken es TokenForRole(RoleRead).
func (s *Store) ReadToken() (string, bool) { return s.TokenForRole(RoleRead) }

// WriteToken es TokenForRole(RoleWrite).
func (s *Store) WriteToken() (string, bool) { return s.TokenForRole(RoleWrite) }

// Set devuelve el TokenSet subyacente.
func (s *Store) Set() TokenSet {
	if s == nil {
		return TokenSet{}
	}
	return s.set
}
