package school

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

// Student statuses
const (
	StudentActive    = "active"
	StudentInactive  = "inactive"
	StudentGraduated = "graduated"
)

// Attendance statuses
const (
	Present = "present"
	Absent  = "absent"
	Late    = "late"
	Excused = "excused"
)

// Fee statuses
const (
	FeePaid    = "paid"
	FeePending = "pending"
	FeeOverdue = "overdue"
)

// Payment methods
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentOnline       = "online"
	PaymentCheque       = "cheque"
)

// Notification types
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationSuccess = "success"
	NotificationError   = "error"
)

var (
	StudentStatuses    = []string{StudentActive, StudentInactive, StudentGraduated}
	AttendanceStatuses = []string{Present, Absent, Late, Excused}
	FeeStatuses        = []string{FeePaid, FeePending, FeeOverdue}
	PaymentMethods     = []string{PaymentCash, PaymentBankTransfer, PaymentOnline, PaymentCheque}
	Terms              = []string{"First", "Second", "Third"}
	Genders            = []string{"Male", "Female"}
)

type Student struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	RollNumber    string `json:"rollNumber"`
	Class         string `json:"class"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	GuardianName  string `json:"guardianName,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty"`
	Status        string `json:"status"`
}

func (s Student) Ref() StudentRef {
	return StudentRef{ID: s.ID, Name: s.Name, RollNumber: s.RollNumber}
}

type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	RollNumber    string `json:"rollNumber" validate:"required"`
	Class         string `json:"class" validate:"required"`
	Age           int    `json:"age" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	GuardianName  string `json:"guardianName,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=active inactive graduated"`
}

func (s *NewStudent) Clean() {
	s.Name = core.CleanString(s.Name)
	s.RollNumber = core.CleanString(s.RollNumber)
	s.Class = core.CleanString(s.Class)
	s.Gender = core.CleanString(s.Gender)
	s.Email = core.CleanString(s.Email, true /* lower */)
	s.Phone = core.CleanString(s.Phone)
	s.Address = core.CleanString(s.Address)
	s.GuardianName = core.CleanString(s.GuardianName)
	s.GuardianPhone = core.CleanString(s.GuardianPhone)
}

// StudentFilter is sent to the backend as query parameters.
type StudentFilter struct {
	Status string
	Class  string
	Search string
}

// Params returns the non-empty filter values.
func (f StudentFilter) Params() map[string]string {
	params := make(map[string]string, 3)
	if f.Status != "" && f.Status != "all" {
		params["status"] = f.Status
	}
	if f.Class != "" && f.Class != "all" {
		params["class"] = f.Class
	}
	if s := core.CleanString(f.Search); s != "" {
		params["search"] = s
	}
	return params
}

// StudentRef references a Student from another record.
// The backend sends either the bare id or the populated student.
type StudentRef struct {
	ID         string `json:"_id"`
	Name       string `json:"name,omitempty"`
	RollNumber string `json:"rollNumber,omitempty"`
	Class      string `json:"class,omitempty"`
}

func (r *StudentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = StudentRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return errors.Wrap(err, "decoding student id")
		}
		*r = StudentRef{ID: id}
		return nil
	}
	type populated StudentRef
	var p populated
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "decoding student reference")
	}
	*r = StudentRef(p)
	return nil
}

// DisplayName falls back to N/A for unpopulated references.
func (r StudentRef) DisplayName() string {
	if r.Name == "" {
		return "N/A"
	}
	return r.Name
}

type GradeRecord struct {
	ID           string     `json:"_id"`
	Student      StudentRef `json:"student_id"`
	Subject      string     `json:"subject"`
	Marks        float64    `json:"marks"`
	Grade        string     `json:"grade"`
	Term         string     `json:"term"`
	AcademicYear string     `json:"academic_year"`
	Remarks      string     `json:"remarks,omitempty"`
}

type NewGrade struct {
	StudentID    string   `json:"student_id" validate:"required"`
	Subject      string   `json:"subject" validate:"required"`
	Marks        *float64 `json:"marks" validate:"required"` // 0 - 100
	Term         string   `json:"term" validate:"required,oneof=First Second Third"`
	AcademicYear string   `json:"academic_year" validate:"required,academicyear"`
	Remarks      string   `json:"remarks,omitempty"`
}

func (g *NewGrade) Clean() {
	g.Subject = core.CleanString(g.Subject)
	g.AcademicYear = core.CleanString(g.AcademicYear)
	g.Remarks = core.CleanString(g.Remarks)
}

type AttendanceRecord struct {
	ID      string     `json:"_id"`
	Student StudentRef `json:"student_id"`
	Date    string     `json:"date"`
	Status  string     `json:"status"`
	Remarks string     `json:"remarks,omitempty"`
}

// Day returns the YYYY-MM-DD part of Date.
func (a AttendanceRecord) Day() string {
	if len(a.Date) >= len(core.DateLayout) {
		return a.Date[:len(core.DateLayout)]
	}
	return a.Date
}

type NewAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   string `json:"remarks,omitempty"`
}

type FeeRecord struct {
	ID            string     `json:"_id"`
	Student       StudentRef `json:"student_id"`
	StudentName   string     `json:"student_name,omitempty"`
	Amount        float64    `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Term          string     `json:"term"`
	AcademicYear  string     `json:"academic_year"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

type NewFee struct {
	StudentID     string  `json:"student_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash bank_transfer online cheque"`
	Term          string  `json:"term" validate:"required,oneof=First Second Third"`
	AcademicYear  string  `json:"academic_year" validate:"required,academicyear"`
	ReceiptNumber string  `json:"receipt_number,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Status        string  `json:"status,omitempty" validate:"omitempty,oneof=paid pending overdue"`
}

func (f *NewFee) Clean() {
	f.AcademicYear = core.CleanString(f.AcademicYear)
	f.ReceiptNumber = core.CleanString(f.ReceiptNumber)
	f.Notes = core.CleanString(f.Notes)
}

type Notification struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Category  string    `json:"category,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type UnreadCount struct {
	Count int `json:"count"`
}

type DashboardStats struct {
	TotalStudents  int     `json:"total_students"`
	ActiveStudents int     `json:"active_students"`
	TotalClasses   int     `json:"total_classes"`
	PresentToday   int     `json:"present_today"`
	TotalFeesPaid  float64 `json:"total_fees_paid"`
	PendingFees    float64 `json:"pending_fees"`
}

type Activity struct {
	ID          string    `json:"_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeAgo     string    `json:"timeAgo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassCount is one entry of the class distribution report: ID is the class name.
type ClassCount struct {
	Class string `json:"_id"`
	Count int    `json:"count"`
}

type TopPerformer struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	RollNumber    string  `json:"rollNumber"`
	Class         string  `json:"class"`
	AverageMarks  float64 `json:"averageMarks"`
	TotalSubjects int     `json:"totalSubjects"`
}
