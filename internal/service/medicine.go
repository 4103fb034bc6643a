package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
	"github.com/Strob0t/Karuna/internal/port/database"
)

// MedicineService handles catalogue lookups. Responses are cached by the
// HTTP middleware, not here.
type MedicineService struct {
	store database.Store
}

// NewMedicineService creates a new MedicineService.
func NewMedicineService(store database.Store) *MedicineService {
	return &MedicineService{store: store}
}

// List returns the whole catalogue, or ErrNotFound when it is empty.
func (s *MedicineService) List(ctx context.Context) ([]medicine.Medicine, error) {
	meds, err := s.store.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}
	if len(meds) == 0 {
		return nil, fmt.Errorf("no medicines found in the database: %w", domain.ErrNotFound)
	}
	return meds, nil
}

// Get returns one catalogue entry.
func (s *MedicineService) Get(ctx context.Context, id string) (*medicine.Medicine, error) {
	return s.store.GetMedicine(ctx, id)
}

// MatchPrescription looks up each prescribed name and keeps the
// medicine.MatchesPerName entries with the shortest generic names.
func (s *MedicineService) MatchPrescription(ctx context.Context, names []string) ([]medicine.Medicine, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("valid prescription array is required: %w", domain.ErrValidation)
	}

	var found []medicine.Medicine
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		meds, err := s.store.SearchMedicines(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", name, err)
		}
		found = append(found, medicine.Shortest(meds, medicine.MatchesPerName)...)
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no medicines found for the given prescription: %w", domain.ErrNotFound)
	}
	return found, nil
}
