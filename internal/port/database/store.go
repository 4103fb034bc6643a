// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/Karuna/internal/connguard"
	"github.com/Strob0t/Karuna/internal/domain/directory"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
	"github.com/Strob0t/Karuna/internal/domain/student"
)

// Store is the port interface for document queries. Every call makes sure
// a connection exists before querying.
type Store interface {
	// Directory
	ListDoctors(ctx context.Context) ([]directory.Doctor, error)
	SearchDoctorsByName(ctx context.Context, name string) ([]directory.Doctor, error)
	FindDoctorsBySpecialization(ctx context.Context, f directory.SpecFilter) ([]directory.Doctor, error)
	ListHospitals(ctx context.Context) ([]directory.Hospital, error)
	SearchHospitalsByName(ctx context.Context, name string) ([]directory.Hospital, error)

	// Medicines
	ListMedicines(ctx context.Context) ([]medicine.Medicine, error)
	SearchMedicines(ctx context.Context, genericName string) ([]medicine.Medicine, error)
	GetMedicine(ctx context.Context, id string) (*medicine.Medicine, error)

	// Students
	ListStudents(ctx context.Context) ([]student.Student, error)
	InsertStudents(ctx context.Context, students []student.Student) (int, error)
}

// Connection exposes the lifecycle of the store's underlying connection.
type Connection interface {
	Reset(ctx context.Context) error
	State() connguard.State
}
