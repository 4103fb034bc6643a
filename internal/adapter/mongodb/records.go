package mongodb

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Strob0t/Karuna/internal/domain/directory"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
	"github.com/Strob0t/Karuna/internal/domain/student"
)

// Collection names used by the seeded datasets.
const (
	collDoctors   = "docs"
	collHospitals = "hospitals"
	collMedicines = "drugs"
	collStudents  = "students"
)

type listingRecord struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Location       string        `bson:"location"`
	Name           string        `bson:"name"`
	Specialization string        `bson:"specialization"`
	Rating         float64       `bson:"rating"`
	Contact        string        `bson:"contact,omitempty"`
	Website        string        `bson:"website,omitempty"`
}

func (r *listingRecord) doctor() directory.Doctor {
	return directory.Doctor{
		ID:             r.ID.Hex(),
		Location:       r.Location,
		Name:           r.Name,
		Specialization: r.Specialization,
		Rating:         r.Rating,
		Contact:        r.Contact,
		Website:        r.Website,
	}
}

func (r *listingRecord) hospital() directory.Hospital {
	return directory.Hospital(r.doctor())
}

type medicineRecord struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	SrNo        int           `bson:"srNo"`
	DrugCode    string        `bson:"drugCode"`
	GenericName string        `bson:"genericName"`
	UnitSize    string        `bson:"unitSize"`
	MRP         float64       `bson:"mrp"`
}

func (r *medicineRecord) medicine() medicine.Medicine {
	return medicine.Medicine{
		ID:          r.ID.Hex(),
		SrNo:        r.SrNo,
		DrugCode:    r.DrugCode,
		GenericName: r.GenericName,
		UnitSize:    r.UnitSize,
		MRP:         r.MRP,
	}
}

type sgpaRecord struct {
	Sem1 *float64 `bson:"sem1,omitempty"`
	Sem2 *float64 `bson:"sem2,omitempty"`
	Sem3 *float64 `bson:"sem3,omitempty"`
	Sem4 *float64 `bson:"sem4,omitempty"`
	Sem5 *float64 `bson:"sem5,omitempty"`
	Sem6 *float64 `bson:"sem6,omitempty"`
	Sem7 *float64 `bson:"sem7,omitempty"`
	Sem8 *float64 `bson:"sem8,omitempty"`
}

type studentRecord struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	OverallSNo int           `bson:"overall_s_no,omitempty"`
	SNo        int           `bson:"s_no,omitempty"`
	Course     string        `bson:"course,omitempty"`
	Branch     string        `bson:"branch"`
	Year       int           `bson:"year"`
	RollNo     int64         `bson:"rollNo"`
	EnrollNo   int64         `bson:"enrollNo,omitempty"`
	Name       string        `bson:"name"`
	DOB        string        `bson:"DOB,omitempty"`
	SGPA       sgpaRecord    `bson:"SGPA"`
}

func (r *studentRecord) student() student.Student {
	return student.Student{
		ID:         r.ID.Hex(),
		OverallSNo: r.OverallSNo,
		SNo:        r.SNo,
		Course:     r.Course,
		Branch:     r.Branch,
		Year:       r.Year,
		RollNo:     r.RollNo,
		EnrollNo:   r.EnrollNo,
		Name:       r.Name,
		DOB:        r.DOB,
		SGPA:       student.SGPA(r.SGPA),
	}
}

// newStudentRecord drops any caller-supplied id; the server assigns one.
func newStudentRecord(s *student.Student) studentRecord {
	return studentRecord{
		OverallSNo: s.OverallSNo,
		SNo:        s.SNo,
		Course:     s.Course,
		Branch:     s.Branch,
		Year:       s.Year,
		RollNo:     s.RollNo,
		EnrollNo:   s.EnrollNo,
		Name:       s.Name,
		DOB:        s.DOB,
		SGPA:       sgpaRecord(s.SGPA),
	}
}
