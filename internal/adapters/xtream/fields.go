package xtream

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Politique de décodage commune à tous les enregistrements amont.
//
// Nombres: nombre JSON ou chaîne numérique -> valeur; "" / null / absent -> défaut;
// toute autre forme -> erreur. Chaînes: null / absent -> "". Alias: essayés dans
// l'ordre, le premier présent et non null gagne.

var (
	errNotNumber = errors.New("not a number or numeric string")
	errNotString = errors.New("not a string")
	errNotObject = errors.New("not an object")
	errNotList   = errors.New("not a list or an index-keyed object")
)

// Fields est un objet JSON amont dont les valeurs ne sont pas encore typées.
type Fields map[string]json.RawMessage

// ParseFields décode un objet. Un tableau vide ou null donne un objet vide:
// certains serveurs répondent [] quand l'id est inconnu.
func ParseFields(data []byte) (Fields, error) {
	data = bytes.TrimSpace(data)
	if isNull(data) || isEmptyArray(data) {
		return Fields{}, nil
	}
	if len(data) == 0 || data[0] != '{' {
		return nil, errNotObject
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// lookup renvoie la première valeur non nulle parmi les alias.
func (f Fields) lookup(names ...string) (json.RawMessage, string, bool) {
	for _, name := range names {
		raw, ok := f[name]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || isNull(raw) {
			continue
		}
		return raw, name, true
	}
	return nil, "", false
}

// Has indique si au moins un des alias est présent avec une valeur non nulle.
func (f Fields) Has(names ...string) bool {
	_, _, ok := f.lookup(names...)
	return ok
}

// OptInt renvoie nil pour null, "" ou absent.
func (f Fields) OptInt(names ...string) (*int64, error) {
	raw, name, ok := f.lookup(names...)
	if !ok {
		return nil, nil
	}
	text, empty, err := numberText(raw)
	if err != nil {
		return nil, fieldError(name, err)
	}
	if empty {
		return nil, nil
	}
	v, err := parseInt(text)
	if err != nil {
		return nil, fieldError(name, err)
	}
	return &v, nil
}

// Int renvoie 0 pour null, "" ou absent.
func (f Fields) Int(names ...string) (int64, error) {
	v, err := f.OptInt(names...)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func (f Fields) OptFloat(names ...string) (*float64, error) {
	raw, name, ok := f.lookup(names...)
	if !ok {
		return nil, nil
	}
	text, empty, err := numberText(raw)
	if err != nil {
		return nil, fieldError(name, err)
	}
	if empty {
		return nil, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fieldError(name, errNotNumber)
	}
	return &v, nil
}

func (f Fields) Float(names ...string) (float64, error) {
	v, err := f.OptFloat(names...)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// String accepte aussi un nombre, rendu tel quel.
func (f Fields) String(names ...string) (string, error) {
	raw, name, ok := f.lookup(names...)
	if !ok {
		return "", nil
	}
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fieldError(name, err)
		}
		return s, nil
	case isNumberLiteral(raw):
		return string(raw), nil
	default:
		return "", fieldError(name, errNotString)
	}
}

// ID normalise un identifiant entier ou chaîne en chaîne décimale.
func (f Fields) ID(names ...string) (string, error) {
	raw, name, ok := f.lookup(names...)
	if !ok {
		return "", nil
	}
	text, empty, err := numberText(raw)
	if err == nil {
		if empty {
			return "", nil
		}
		// 12.0 -> "12"
		if n, perr := parseInt(text); perr == nil {
			return strconv.FormatInt(n, 10), nil
		}
		return text, nil
	}
	// Identifiant opaque non numérique.
	s, serr := f.String(name)
	if serr != nil {
		return "", serr
	}
	return strings.TrimSpace(s), nil
}

// Object décode un sous-objet (tableau vide toléré).
func (f Fields) Object(names ...string) (Fields, error) {
	raw, name, ok := f.lookup(names...)
	if !ok {
		return Fields{}, nil
	}
	sub, err := ParseFields(raw)
	if err != nil {
		return nil, fieldError(name, err)
	}
	return sub, nil
}

// Raw renvoie la valeur brute du premier alias non nul.
func (f Fields) Raw(names ...string) (json.RawMessage, bool) {
	raw, _, ok := f.lookup(names...)
	return raw, ok
}

// numberText extrait le texte d'un nombre JSON ou d'une chaîne numérique.
// empty vaut true pour "" (valeur par défaut).
func numberText(raw json.RawMessage) (text string, empty bool, err error) {
	switch {
	case len(raw) == 0:
		return "", true, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", true, nil
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", false, errNotNumber
		}
		return s, false, nil
	case isNumberLiteral(raw):
		return string(raw), false, nil
	default:
		return "", false, errNotNumber
	}
}

// parseInt accepte une forme flottante si elle est entière ("3.0").
func parseInt(text string) (int64, error) {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, nil
	}
	fv, err := strconv.ParseFloat(text, 64)
	if err != nil || fv != math.Trunc(fv) || math.IsInf(fv, 0) {
		return 0, errNotNumber
	}
	return int64(fv), nil
}

func isNumberLiteral(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func isNull(raw []byte) bool {
	return bytes.Equal(raw, []byte("null"))
}

func isEmptyArray(raw []byte) bool {
	if len(raw) < 2 || raw[0] != '[' {
		return false
	}
	return len(bytes.TrimSpace(raw[1:len(raw)-1])) == 0 && raw[len(raw)-1] == ']'
}

func fieldError(name string, err error) error {
	return fmt.Errorf("field %q: %w", name, err)
}

// reader évite de tester l'erreur après chaque champ: la première erreur est conservée.
type reader struct {
	f   Fields
	err error
}

func newReader(f Fields) *reader { return &reader{f: f} }

func (r *reader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reader) str(names ...string) string {
	v, err := r.f.String(names...)
	r.keep(err)
	return v
}

func (r *reader) id(names ...string) string {
	v, err := r.f.ID(names...)
	r.keep(err)
	return v
}

func (r *reader) int(names ...string) int64 {
	v, err := r.f.Int(names...)
	r.keep(err)
	return v
}

func (r *reader) optInt(names ...string) *int64 {
	v, err := r.f.OptInt(names...)
	r.keep(err)
	return v
}

func (r *reader) optFloat(names ...string) *float64 {
	v, err := r.f.OptFloat(names...)
	r.keep(err)
	return v
}

func (r *reader) object(names ...string) Fields {
	v, err := r.f.Object(names...)
	r.keep(err)
	if v == nil {
		return Fields{}
	}
	return v
}
