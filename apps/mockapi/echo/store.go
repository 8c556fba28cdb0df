package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

// account is a registered user.
type account struct {
	user.Profile
	PasswordHash []byte
}

func (a *account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

type gradeRow struct {
	school.GradeRecord
	StudentID string
}

type attendanceRow struct {
	school.AttendanceRecord
	StudentID string
}

type feeRow struct {
	school.FeeRecord
	StudentID string
}

// store is the in-memory school database.
type store struct {
	mu sync.RWMutex

	accounts      []*account
	students      []school.Student
	grades        []gradeRow
	attendance    []attendanceRow
	fees          []feeRow
	notifications []school.Notification
	activities    []school.Activity
	receiptSeq    int
}

func newStore() *store {
	return new(store)
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
}

func (s *store) now() time.Time {
	return core.NowFunc().UTC()
}

// Accounts

func (s *store) accountByEmail(email string) (*account, bool) {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return nil, false
}

func (s *store) accountByID(id string) (*account, bool) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (s *store) createAccount(fullName, email, pwd, role string) (user.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accountByEmail(email); ok {
		return user.Profile{}, errDuplicate
	}
	acc := &account{Profile: user.Profile{
		ID:        newID(),
		FullName:  fullName,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: s.now(),
	}}
	if err := acc.SetPassword(pwd); err != nil {
		return user.Profile{}, errors.Wrap(err, "hashing password")
	}
	s.accounts = append(s.accounts, acc)
	return acc.Profile, nil
}

func (s *store) authenticate(email, pwd string) (user.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accountByEmail(email)
	if !ok || acc.CheckPassword(pwd) != nil {
		return user.Profile{}, false
	}
	return acc.Profile, true
}

func (s *store) updateProfile(id string, upd user.ProfileUpdate) (user.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountByID(id)
	if !ok {
		return user.Profile{}, errNotFound
	}
	if other, ok := s.accountByEmail(upd.Email); ok && other.ID != id {
		return user.Profile{}, errDuplicate
	}
	acc.FullName = upd.FullName
	acc.Email = strings.ToLower(upd.Email)
	return acc.Profile, nil
}

func (s *store) changePassword(id, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accountByID(id)
	if !ok {
		return false, errNotFound
	}
	if acc.CheckPassword(current) != nil {
		return false, nil
	}
	return true, acc.SetPassword(next)
}

// Students

func (s *store) studentIndex(id string) int {
	for i, st := range s.students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s *store) listStudents(filter school.StudentFilter) []school.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.Student, 0, len(s.students))
	for _, st := range s.students {
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.Class != "" && st.Class != filter.Class {
			continue
		}
		if q := filter.Search; q != "" &&
			!(core.ContainsFold(st.Name, q) || core.ContainsFold(st.RollNumber, q) || core.ContainsFold(st.Email, q)) {
			continue
		}
		out = append(out, st)
	}
	return out
}

func (s *store) student(id string) (school.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.studentIndex(id); i >= 0 {
		return s.students[i], nil
	}
	return school.Student{}, errNotFound
}

func (s *store) createStudent(ns school.NewStudent) (school.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if strings.EqualFold(st.RollNumber, ns.RollNumber) {
			return school.Student{}, errDuplicate
		}
	}
	status := ns.Status
	if status == "" {
		status = school.StudentActive
	}
	st := school.Student{
		ID:            newID(),
		Name:          ns.Name,
		RollNumber:    ns.RollNumber,
		Class:         ns.Class,
		Age:           ns.Age,
		Gender:        ns.Gender,
		Email:         ns.Email,
		Phone:         ns.Phone,
		Address:       ns.Address,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		Status:        status,
	}
	s.students = append(s.students, st)
	s.record("student", "New student enrolled", fmt.Sprintf("%s joined class %s", st.Name, st.Class))
	s.notify("New Student", fmt.Sprintf("%s has been added to class %s.", st.Name, st.Class), school.NotificationInfo, "students")
	return st, nil
}

func (s *store) deleteStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.studentIndex(id)
	if i < 0 {
		return errNotFound
	}
	st := s.students[i]
	s.students = append(s.students[:i], s.students[i+1:]...)

	grades := s.grades[:0]
	for _, g := range s.grades {
		if g.StudentID != id {
			grades = append(grades, g)
		}
	}
	s.grades = grades
	attendance := s.attendance[:0]
	for _, a := range s.attendance {
		if a.StudentID != id {
			attendance = append(attendance, a)
		}
	}
	s.attendance = attendance
	fees := s.fees[:0]
	for _, f := range s.fees {
		if f.StudentID != id {
			fees = append(fees, f)
		}
	}
	s.fees = fees

	s.record("student", "Student removed", st.Name+" was removed")
	return nil
}

// ref returns the populated reference of a student; the bare id if it is gone.
func (s *store) ref(id string) school.StudentRef {
	if i := s.studentIndex(id); i >= 0 {
		st := s.students[i]
		return school.StudentRef{ID: st.ID, Name: st.Name, RollNumber: st.RollNumber, Class: st.Class}
	}
	return school.StudentRef{ID: id}
}

// Grades

func (s *store) listGrades(studentID string) []school.GradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.GradeRecord, 0, len(s.grades))
	for _, g := range s.grades {
		if studentID != "" && g.StudentID != studentID {
			continue
		}
		rec := g.GradeRecord
		rec.Student = s.ref(g.StudentID)
		out = append(out, rec)
	}
	return out
}

func (s *store) createGrade(ng school.NewGrade) (school.GradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.studentIndex(ng.StudentID) < 0 {
		return school.GradeRecord{}, errNotFound
	}
	row := gradeRow{
		StudentID: ng.StudentID,
		GradeRecord: school.GradeRecord{
			ID:           newID(),
			Subject:      ng.Subject,
			Marks:        *ng.Marks,
			Grade:        school.GradeLetter(*ng.Marks),
			Term:         ng.Term,
			AcademicYear: ng.AcademicYear,
			Remarks:      ng.Remarks,
		},
	}
	s.grades = append(s.grades, row)
	rec := row.GradeRecord
	rec.Student = s.ref(ng.StudentID)
	s.record("grade", "Grade recorded", fmt.Sprintf("%s scored %s in %s", rec.Student.Name, rec.Grade, rec.Subject))
	return rec, nil
}

// Attendance

func (s *store) listAttendance(date, studentID string) []school.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.AttendanceRecord, 0, len(s.attendance))
	for _, a := range s.attendance {
		if date != "" && a.Date != date {
			continue
		}
		if studentID != "" && a.StudentID != studentID {
			continue
		}
		rec := a.AttendanceRecord
		rec.Student = s.ref(a.StudentID)
		out = append(out, rec)
	}
	return out
}

// markAttendance keeps one record per (student, date): marking again updates it.
func (s *store) markAttendance(na school.NewAttendance) (school.AttendanceRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.studentIndex(na.StudentID) < 0 {
		return school.AttendanceRecord{}, false, errNotFound
	}
	for i, a := range s.attendance {
		if a.StudentID == na.StudentID && a.Date == na.Date {
			s.attendance[i].Status = na.Status
			s.attendance[i].Remarks = na.Remarks
			rec := s.attendance[i].AttendanceRecord
			rec.Student = s.ref(na.StudentID)
			return rec, false, nil
		}
	}
	row := attendanceRow{
		StudentID: na.StudentID,
		AttendanceRecord: school.AttendanceRecord{
			ID:      newID(),
			Date:    na.Date,
			Status:  na.Status,
			Remarks: na.Remarks,
		},
	}
	s.attendance = append(s.attendance, row)
	rec := row.AttendanceRecord
	rec.Student = s.ref(na.StudentID)
	return rec, true, nil
}

// Fees

func (s *store) listFees(studentID string) []school.FeeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.FeeRecord, 0, len(s.fees))
	for i := len(s.fees) - 1; i >= 0; i-- { // newest first
		f := s.fees[i]
		if studentID != "" && f.StudentID != studentID {
			continue
		}
		rec := f.FeeRecord
		rec.Student = s.ref(f.StudentID)
		out = append(out, rec)
	}
	return out
}

func (s *store) createFee(nf school.NewFee) (school.FeeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.studentIndex(nf.StudentID)
	if i < 0 {
		return school.FeeRecord{}, errNotFound
	}
	s.receiptSeq++
	receipt := nf.ReceiptNumber
	if receipt == "" {
		receipt = fmt.Sprintf("RCP-%05d", s.receiptSeq)
	}
	status := nf.Status
	if status == "" {
		status = school.FeePaid
	}
	row := feeRow{
		StudentID: nf.StudentID,
		FeeRecord: school.FeeRecord{
			ID:            newID(),
			StudentName:   s.students[i].Name,
			Amount:        nf.Amount,
			PaymentMethod: nf.PaymentMethod,
			Term:          nf.Term,
			AcademicYear:  nf.AcademicYear,
			ReceiptNumber: receipt,
			Notes:         nf.Notes,
			Status:        status,
			CreatedAt:     s.now(),
		},
	}
	s.fees = append(s.fees, row)
	rec := row.FeeRecord
	rec.Student = s.ref(nf.StudentID)
	s.record("fee", "Fee payment recorded", fmt.Sprintf("₦%.2f from %s (%s)", rec.Amount, rec.StudentName, rec.Status))
	s.notify("Fee Payment", fmt.Sprintf("Receipt %s recorded for %s.", receipt, rec.StudentName), school.NotificationSuccess, "fees")
	return rec, nil
}

// Notifications

func (s *store) notify(title, message, typ, category string) {
	s.notifications = append(s.notifications, school.Notification{
		ID:        newID(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Category:  category,
		CreatedAt: s.now(),
	})
}

func (s *store) addNotification(title, message, typ, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify(title, message, typ, category)
}

func (s *store) listNotifications(limit int) []school.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.Notification, 0, len(s.notifications))
	for i := len(s.notifications) - 1; i >= 0; i-- { // newest first
		out = append(out, s.notifications[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *store) unreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return school.CountUnread(s.notifications)
}

func (s *store) markRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return errNotFound
}

func (s *store) markAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
}

func (s *store) deleteNotification(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

// Aggregates

func (s *store) record(typ, title, description string) {
	s.activities = append(s.activities, school.Activity{
		ID:          newID(),
		Type:        typ,
		Title:       title,
		Description: description,
		CreatedAt:   s.now(),
	})
}

func (s *store) recentActivities(limit int) []school.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]school.Activity, 0, limit)
	for i := len(s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		a := s.activities[i]
		a.TimeAgo = core.TimeAgo(a.CreatedAt)
		out = append(out, a)
	}
	return out
}

func (s *store) dashboardStats() school.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats school.DashboardStats
	classes := make(map[string]bool)
	for _, st := range s.students {
		stats.TotalStudents++
		if st.Status == school.StudentActive {
			stats.ActiveStudents++
		}
		classes[st.Class] = true
	}
	stats.TotalClasses = len(classes)

	today := s.now().Format(core.DateLayout)
	for _, a := range s.attendance {
		if a.Date == today && a.Status == school.Present {
			stats.PresentToday++
		}
	}
	for _, f := range s.fees {
		switch f.Status {
		case school.FeePaid:
			stats.TotalFeesPaid += f.Amount
		case school.FeePending, school.FeeOverdue:
			stats.PendingFees += f.Amount
		}
	}
	return stats
}

func (s *store) classDistribution() []school.ClassCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, st := range s.students {
		counts[st.Class]++
	}
	out := make([]school.ClassCount, 0, len(counts))
	for class, n := range counts {
		out = append(out, school.ClassCount{Class: class, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

func (s *store) topPerformers(limit int) []school.TopPerformer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type agg struct {
		total    float64
		subjects int
	}
	byStudent := make(map[string]*agg)
	for _, g := range s.grades {
		a, ok := byStudent[g.StudentID]
		if !ok {
			a = new(agg)
			byStudent[g.StudentID] = a
		}
		a.total += g.Marks
		a.subjects++
	}
	out := make([]school.TopPerformer, 0, len(byStudent))
	for id, a := range byStudent {
		i := s.studentIndex(id)
		if i < 0 {
			continue
		}
		st := s.students[i]
		out = append(out, school.TopPerformer{
			ID:            st.ID,
			Name:          st.Name,
			RollNumber:    st.RollNumber,
			Class:         st.Class,
			AverageMarks:  a.total / float64(a.subjects),
			TotalSubjects: a.subjects,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageMarks == out[j].AverageMarks {
			return out[i].Name < out[j].Name
		}
		return out[i].AverageMarks > out[j].AverageMarks
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
