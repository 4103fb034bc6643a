package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/student"
	"github.com/Strob0t/Karuna/internal/port/database"
)

// KeyAllStudents caches the full student listing.
const KeyAllStudents = "all_students"

// StudentService serves student records.
type StudentService struct {
	store database.Store
	cache *CacheService
}

// NewStudentService creates a new StudentService.
func NewStudentService(store database.Store, cache *CacheService) *StudentService {
	return &StudentService{store: store, cache: cache}
}

// List returns every student wrapped in the listing envelope.
func (s *StudentService) List(ctx context.Context) (student.Listing, error) {
	return GetOrFetch(ctx, s.cache, KeyAllStudents, func(ctx context.Context) (student.Listing, error) {
		students, err := s.store.ListStudents(ctx)
		if err != nil {
			return student.Listing{}, err
		}
		if students == nil {
			students = []student.Student{}
		}
		return student.Listing{Success: true, Count: len(students), Data: students}, nil
	})
}

// Import validates and inserts records, then drops the cached listing.
func (s *StudentService) Import(ctx context.Context, students []student.Student) (int, error) {
	for i := range students {
		if field := students[i].Validate(); field != "" {
			return 0, fmt.Errorf("record %d: %s is required: %w", i, field, domain.ErrValidation)
		}
	}

	n, err := s.store.InsertStudents(ctx, students)
	if n > 0 {
		s.cache.Invalidate(ctx, KeyAllStudents)
	}
	return n, err
}
