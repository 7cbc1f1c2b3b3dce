package tokens

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Schema es la variante de salida. La decide el camino de invocación
// (flags -> Legacy, script -> Current), nunca el contenido del payload.
type Schema int

const (
	// SchemaLegacy: {"read":{"token":...},"write":{"token":...}} (worf, Warp 10 2.x).
	SchemaLegacy Schema = iota + 1
	// SchemaCurrent: [{"id":...,"token":...,"ident":...}, ...] (tokengen, Warp 10 3.x).
	SchemaCurrent
)

func (s Schema) String() string {
	switch s {
	case SchemaLegacy:
		return "legacy"
	case SchemaCurrent:
		return "current"
	default:
		return fmt.Sprintf("schema(%d)", int(s))
	}
}

// ParseSchema convierte "legacy"/"current" en un Schema.
func ParseSchema(s string) (Schema, error) {
	switch s {
	case "legacy":
		return SchemaLegacy, nil
	case "current":
		return SchemaCurrent, nil
	}
	return 0, fmt.Errorf("unknown token schema %q (want legacy|current)", s)
}

// ErrUnknownSchema se devuelve si Parse recibe un Schema fuera de rango.
var ErrUnknownSchema = errors.New("unknown token schema")

// ParseError describe un payload que no es JSON válido o no respeta el esquema.
type ParseError struct {
	Schema Schema
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s token payload: %s: %v", e.Schema, e.Detail, e.Err)
	}
	return fmt.Sprintf("parse %s token payload: %s", e.Schema, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodifica stdout según schema.
func Parse(schema Schema, stdout []byte) (TokenSet, error) {
	switch schema {
	case SchemaLegacy:
		return ParseLegacy(stdout)
	case SchemaCurrent:
		return ParseCurrent(stdout)
	default:
		return TokenSet{}, fmt.Errorf("%w: %d", ErrUnknownSchema, int(schema))
	}
}

type legacyToken struct {
	Token       string `json:"token"`
	TokenIdent  string `json:"tokenIdent"`
	Application string `json:"application"`
}

type legacyPayload struct {
	Read  *legacyToken `json:"read"`
	Write *legacyToken `json:"write"`
}

// ParseLegacy acepta el objeto único de worf. Campos desconocidos se ignoran.
func ParseLegacy(stdout []byte) (TokenSet, error) {
	body := bytes.TrimSpace(stdout)
	if len(body) == 0 || body[0] != '{' {
		return TokenSet{}, &ParseError{Schema: SchemaLegacy, Detail: "expected a JSON object"}
	}
	var p legacyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return TokenSet{}, &ParseError{Schema: SchemaLegacy, Detail: "invalid JSON", Err: err}
	}

	records := make([]TokenRecord, 0, 2)
	for _, f := range []struct {
		name string
		role string
		tok  *legacyToken
	}{{"read", RoleRead, p.Read}, {"write", RoleWrite, p.Write}} {
		if f.tok == nil {
			return TokenSet{}, &ParseError{Schema: SchemaLegacy, Detail: fmt.Sprintf("missing %q object", f.name)}
		}
		if f.tok.Token == "" {
			return TokenSet{}, &ParseError{Schema: SchemaLegacy, Detail: fmt.Sprintf("%q has no token", f.name)}
		}
		ident := f.tok.TokenIdent
		if ident == "" {
			ident = f.tok.Application
		}
		records = append(records, TokenRecord{Role: f.role, Token: f.tok.Token, Ident: ident})
	}
	return TokenSet{records: records}, nil
}

type currentToken struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Ident string `json:"ident"`
}

// ParseCurrent acepta el array de tokengen. Campos desconocidos se ignoran.
func ParseCurrent(stdout []byte) (TokenSet, error) {
	body := bytes.TrimSpace(stdout)
	if len(body) == 0 || body[0] != '[' {
		return TokenSet{}, &ParseError{Schema: SchemaCurrent, Detail: "expected a JSON array"}
	}
	var raw []currentToken
	if err := json.Unmarshal(body, &raw); err != nil {
		return TokenSet{}, &ParseError{Schema: SchemaCurrent, Detail: "invalid JSON", Err: err}
	}

	records := make([]TokenRecord, 0, len(raw))
	for i, t := range raw {
		if t.ID == "" || t.Token == "" {
			return TokenSet{}, &ParseError{Schema: SchemaCurrent, Detail: fmt.Sprintf("record %d needs both id and token", i)}
		}
		records = append(records, TokenRecord{Role: t.ID, Token: t.Token, Ident: t.Ident})
	}
	return TokenSet{records: records}, nil
}
