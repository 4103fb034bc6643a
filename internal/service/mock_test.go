package service

import (
	"context"
	"strings"
	"sync"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/domain/directory"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
	"github.com/Strob0t/Karuna/internal/domain/student"
	"github.com/Strob0t/Karuna/internal/port/cache"
	"github.com/Strob0t/Karuna/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu sync.Mutex

	doctors   []directory.Doctor
	hospitals []directory.Hospital
	medicines []medicine.Medicine
	students  []student.Student

	// calls counts invocations per method name.
	calls map[string]int

	// Error hooks, set these to inject failures.
	listDoctorsErr    error
	listMedicinesErr  error
	searchMedicineErr error
	insertErr         error

	lastSpecFilter directory.SpecFilter
}

func (m *mockStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockStore) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockStore) ListDoctors(_ context.Context) ([]directory.Doctor, error) {
	m.record("ListDoctors")
	if m.listDoctorsErr != nil {
		return nil, m.listDoctorsErr
	}
	return m.doctors, nil
}

func (m *mockStore) SearchDoctorsByName(_ context.Context, name string) ([]directory.Doctor, error) {
	m.record("SearchDoctorsByName")
	var out []directory.Doctor
	for _, d := range m.doctors {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) FindDoctorsBySpecialization(_ context.Context, f directory.SpecFilter) ([]directory.Doctor, error) {
	m.record("FindDoctorsBySpecialization")
	m.lastSpecFilter = f
	var out []directory.Doctor
	for _, d := range m.doctors {
		for _, v := range f.In {
			if d.Specialization == v {
				out = append(out, d)
			}
		}
		for _, term := range f.AnyOf {
			if strings.Contains(strings.ToLower(d.Specialization), strings.ToLower(term)) {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (m *mockStore) ListHospitals(_ context.Context) ([]directory.Hospital, error) {
	m.record("ListHospitals")
	return m.hospitals, nil
}

func (m *mockStore) SearchHospitalsByName(_ context.Context, name string) ([]directory.Hospital, error) {
	m.record("SearchHospitalsByName")
	var out []directory.Hospital
	for _, h := range m.hospitals {
		if strings.Contains(strings.ToLower(h.Name), strings.ToLower(name)) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) ListMedicines(_ context.Context) ([]medicine.Medicine, error) {
	m.record("ListMedicines")
	return m.medicines, m.listMedicinesErr
}

func (m *mockStore) SearchMedicines(_ context.Context, genericName string) ([]medicine.Medicine, error) {
	m.record("SearchMedicines")
	if m.searchMedicineErr != nil {
		return nil, m.searchMedicineErr
	}
	var out []medicine.Medicine
	for _, med := range m.medicines {
		if strings.Contains(strings.ToLower(med.GenericName), strings.ToLower(genericName)) {
			out = append(out, med)
		}
	}
	return out, nil
}

func (m *mockStore) GetMedicine(_ context.Context, id string) (*medicine.Medicine, error) {
	m.record("GetMedicine")
	for i := range m.medicines {
		if m.medicines[i].ID == id {
			return &m.medicines[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListStudents(_ context.Context) ([]student.Student, error) {
	m.record("ListStudents")
	return m.students, nil
}

func (m *mockStore) InsertStudents(_ context.Context, students []student.Student) (int, error) {
	m.record("InsertStudents")
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.students = append(m.students, students...)
	return len(students), nil
}

// mockGenerator replies with canned text and remembers what it was sent.
type mockGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	history [][]chat.Message
	// onGenerate runs before the reply is returned.
	onGenerate func()
}

func (g *mockGenerator) Generate(_ context.Context, history []chat.Message) (string, error) {
	g.mu.Lock()
	g.history = append(g.history, history)
	hook := g.onGenerate
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return g.reply, g.err
}

func (g *mockGenerator) lastHistory() []chat.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.history) == 0 {
		return nil
	}
	return g.history[len(g.history)-1]
}

// recordingPublisher captures broadcast invalidations.
type recordingPublisher struct {
	mu   sync.Mutex
	sent []cache.Invalidation
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, inv cache.Invalidation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, inv)
	return p.err
}

func (p *recordingPublisher) messages() []cache.Invalidation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]cache.Invalidation(nil), p.sent...)
}
