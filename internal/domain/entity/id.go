package entity

import "github.com/google/uuid"

// IsValidID informa si id es un UUID en forma canónica (36 caracteres con guiones),
// el único formato que se persiste en las columnas id.
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
