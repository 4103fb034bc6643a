package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Strob0t/Karuna/internal/connguard"
	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/directory"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
	"github.com/Strob0t/Karuna/internal/domain/student"
)

// Store implements database.Store and database.Connection. Every query
// obtains its client from the guard, dialing on first use.
type Store struct {
	guard    *connguard.Guard[*Client]
	database string
}

// NewStore creates a Store over the given guard.
func NewStore(guard *connguard.Guard[*Client], database string) *Store {
	return &Store{guard: guard, database: database}
}

func (s *Store) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	c, err := s.guard.EnsureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return c.Database(s.database).Collection(name), nil
}

// Reset drops the current connection and dials a new one.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.guard.Reset(ctx)
	return err
}

// State reports the guard's connection state.
func (s *Store) State() connguard.State {
	return s.guard.State()
}

// findAll runs filter against a collection and converts each record.
func findAll[R any, T any](ctx context.Context, s *Store, coll string, filter any, conv func(*R) T) ([]T, error) {
	c, err := s.collection(ctx, coll)
	if err != nil {
		return nil, err
	}

	cur, err := c.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll, err)
	}

	var records []R
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll, err)
	}

	out := make([]T, 0, len(records))
	for i := range records {
		out = append(out, conv(&records[i]))
	}
	return out, nil
}

// containsFold matches field values containing term, ignoring case. The
// term is matched literally.
func containsFold(term string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// nameFilter builds the search-by-name filter.
func nameFilter(name string) bson.M {
	return bson.M{"name": containsFold(name)}
}

// specializationFilter builds the filter for a parsed specialization query.
func specializationFilter(f directory.SpecFilter) bson.M {
	if len(f.AnyOf) == 0 {
		in := f.In
		if in == nil {
			in = []string{}
		}
		return bson.M{"specialization": bson.M{"$in": in}}
	}

	or := make(bson.A, 0, len(f.AnyOf))
	for _, term := range f.AnyOf {
		or = append(or, bson.M{"specialization": containsFold(term)})
	}
	return bson.M{"$or": or}
}

// ListDoctors returns every doctor.
func (s *Store) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	return findAll(ctx, s, collDoctors, bson.D{}, (*listingRecord).doctor)
}

// SearchDoctorsByName returns doctors whose name contains name.
func (s *Store) SearchDoctorsByName(ctx context.Context, name string) ([]directory.Doctor, error) {
	return findAll(ctx, s, collDoctors, nameFilter(name), (*listingRecord).doctor)
}

// FindDoctorsBySpecialization returns doctors matching f.
func (s *Store) FindDoctorsBySpecialization(ctx context.Context, f directory.SpecFilter) ([]directory.Doctor, error) {
	return findAll(ctx, s, collDoctors, specializationFilter(f), (*listingRecord).doctor)
}

// ListHospitals returns every hospital.
func (s *Store) ListHospitals(ctx context.Context) ([]directory.Hospital, error) {
	return findAll(ctx, s, collHospitals, bson.D{}, (*listingRecord).hospital)
}

// SearchHospitalsByName returns hospitals whose name contains name.
func (s *Store) SearchHospitalsByName(ctx context.Context, name string) ([]directory.Hospital, error) {
	return findAll(ctx, s, collHospitals, nameFilter(name), (*listingRecord).hospital)
}

// ListMedicines returns the whole catalogue.
func (s *Store) ListMedicines(ctx context.Context) ([]medicine.Medicine, error) {
	return findAll(ctx, s, collMedicines, bson.D{}, (*medicineRecord).medicine)
}

// SearchMedicines returns catalogue entries whose generic name contains genericName.
func (s *Store) SearchMedicines(ctx context.Context, genericName string) ([]medicine.Medicine, error) {
	return findAll(ctx, s, collMedicines, bson.M{"genericName": containsFold(genericName)}, (*medicineRecord).medicine)
}

// GetMedicine returns one catalogue entry by its hex id.
func (s *Store) GetMedicine(ctx context.Context, id string) (*medicine.Medicine, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("medicine id %q: %w", id, domain.ErrValidation)
	}

	c, err := s.collection(ctx, collMedicines)
	if err != nil {
		return nil, err
	}

	var rec medicineRecord
	if err := c.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("medicine %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find medicine %s: %w", id, err)
	}
	m := rec.medicine()
	return &m, nil
}

// ListStudents returns every student record.
func (s *Store) ListStudents(ctx context.Context) ([]student.Student, error) {
	return findAll(ctx, s, collStudents, bson.D{}, (*studentRecord).student)
}

// InsertStudents bulk-inserts records and returns how many were written.
// The insert is unordered so one bad record does not stop the rest.
func (s *Store) InsertStudents(ctx context.Context, students []student.Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	c, err := s.collection(ctx, collStudents)
	if err != nil {
		return 0, err
	}

	docs := make([]studentRecord, 0, len(students))
	for i := range students {
		docs = append(docs, newStudentRecord(&students[i]))
	}

	res, err := c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if res != nil && err != nil {
		return len(res.InsertedIDs), fmt.Errorf("insert students: %w", err)
	}
	if err != nil {
		return 0, fmt.Errorf("insert students: %w", err)
	}
	return len(res.InsertedIDs), nil
}
