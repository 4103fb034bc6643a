package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Strob0t/Karuna/internal/domain/directory"
	"github.com/Strob0t/Karuna/internal/port/database"
)

// Cache keys for directory listings.
const (
	KeyAllDoctors     = "all_docs"
	KeyAllHospitals   = "all_hospitals"
	keyDoctorSearch   = "search_docs_"
	keyHospitalSearch = "search_hospitals_"
	keyDoctorsBySpec  = "docs_by_spec_"
)

// DirectoryService serves doctor and hospital listings through the cache.
type DirectoryService struct {
	store database.Store
	cache *CacheService
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(store database.Store, cache *CacheService) *DirectoryService {
	return &DirectoryService{store: store, cache: cache}
}

// ListDoctors returns every doctor.
func (s *DirectoryService) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	return GetOrFetch(ctx, s.cache, KeyAllDoctors, s.store.ListDoctors)
}

// ListHospitals returns every hospital.
func (s *DirectoryService) ListHospitals(ctx context.Context) ([]directory.Hospital, error) {
	return GetOrFetch(ctx, s.cache, KeyAllHospitals, s.store.ListHospitals)
}

// SearchDoctors returns doctors whose name contains name, ignoring case.
func (s *DirectoryService) SearchDoctors(ctx context.Context, name string) ([]directory.Doctor, error) {
	return GetOrFetch(ctx, s.cache, keyDoctorSearch+name, func(ctx context.Context) ([]directory.Doctor, error) {
		return s.store.SearchDoctorsByName(ctx, name)
	})
}

// SearchHospitals returns hospitals whose name contains name, ignoring case.
func (s *DirectoryService) SearchHospitals(ctx context.Context, name string) ([]directory.Hospital, error) {
	return GetOrFetch(ctx, s.cache, keyHospitalSearch+name, func(ctx context.Context) ([]directory.Hospital, error) {
		return s.store.SearchHospitalsByName(ctx, name)
	})
}

// DoctorsBySpecialization returns doctors matching a specialization given
// as a string or a list of strings. See directory.ParseSpecialization.
func (s *DirectoryService) DoctorsBySpecialization(ctx context.Context, raw json.RawMessage) ([]directory.Doctor, error) {
	filter, err := directory.ParseSpecialization(raw)
	if err != nil {
		return nil, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, err
	}

	return GetOrFetch(ctx, s.cache, keyDoctorsBySpec+compact.String(), func(ctx context.Context) ([]directory.Doctor, error) {
		return s.store.FindDoctorsBySpecialization(ctx, filter)
	})
}
