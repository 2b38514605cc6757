package service

import (
	"errors"
	"fmt"

	"github.com/jask/pokedex/internal/roster"
)

// AddMessage is the confirmation shown after trying to add name.
func AddMessage(name string, err error) string {
	switch {
	case err == nil, errors.Is(err, roster.ErrPersistenceWriteFailed):
		return fmt.Sprintf("%s a rejoint votre équipe.", name)
	case errors.Is(err, roster.ErrDuplicate):
		return fmt.Sprintf("%s est déjà dans votre équipe.", name)
	case errors.Is(err, roster.ErrFull):
		return "Votre équipe est déjà complète."
	default:
		return err.Error()
	}
}

// RemoveMessage is the confirmation shown after removing the last member.
func RemoveMessage(name string, remaining int) string {
	return fmt.Sprintf("%s a été supprimé de votre équipe, il vous reste %d Pokémon.", name, remaining)
}
