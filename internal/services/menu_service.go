package services

import (
	"errors"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/store"
)

// MenuService reads the fixed menu. The menu is read-only from the
// workflows' perspective; only Seed ever writes it.
type MenuService struct {
	store *store.Store
}

// NewMenuService creates a new MenuService.
func NewMenuService(st *store.Store) *MenuService {
	return &MenuService{store: st}
}

// Get returns the current menu.
func (s *MenuService) Get() (models.Menu, error) {
	var menu models.Menu
	if err := s.store.Read("menus", models.MenuID, &menu); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "menu not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the menu", err)
	}
	return menu, nil
}

// Seed writes the menu if it is not present yet. Called once at startup.
func (s *MenuService) Seed(menu models.Menu) error {
	err := s.store.Create("menus", models.MenuID, menu)
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return apperr.Wrap(apperr.KindStore, "could not seed the menu", err)
	}
	return nil
}
