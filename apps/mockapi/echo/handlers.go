package mockapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
)

type handlers struct {
	store      *store
	auth       *authenticator
	validate   *validator.Validate
	translator ut.Translator
	srv        *Server
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin teacher"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (api *handlers) bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := api.validate.Struct(data); err != nil {
		return core.ValidationErrorFrom(err, api.translator)
	}
	return nil
}

func (api *handlers) contextUserID(ctx echo.Context) (string, error) {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Auth

func (api *handlers) login(ctx echo.Context) error {
	var data user.Credentials
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	data.Clean()

	usr, ok := api.store.authenticate(data.Email, data.Password)
	if !ok {
		return errInvalidCredentials
	}
	token, err := api.auth.generateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, user.AuthResponse{Token: token, User: usr})
}

func (api *handlers) register(ctx echo.Context) error {
	var data registerRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	if data.Role == "" {
		data.Role = user.RoleTeacher
	}

	usr, err := api.store.createAccount(core.CleanString(data.FullName), core.CleanString(data.Email, true), data.Password, data.Role)
	if err != nil {
		if errors.Is(err, errDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
		}
		return errors.Wrap(err, "creating account")
	}
	token, err := api.auth.generateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, user.AuthResponse{Token: token, User: usr})
}

func (api *handlers) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Users

func (api *handlers) updateProfile(ctx echo.Context) error {
	id, err := api.contextUserID(ctx)
	if err != nil {
		return err
	}
	var data user.ProfileUpdate
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	data.Clean()

	usr, err := api.store.updateProfile(id, data)
	switch {
	case errors.Is(err, errNotFound):
		return errUserNotFound
	case errors.Is(err, errDuplicate):
		return echo.NewHTTPError(http.StatusBadRequest, "Email already in use")
	case err != nil:
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, user.ProfileResponse{User: usr})
}

func (api *handlers) changePassword(ctx echo.Context) error {
	id, err := api.contextUserID(ctx)
	if err != nil {
		return err
	}
	var data passwordChangeRequest
	if err = api.bind(ctx, &data); err != nil {
		return err
	}

	ok, err := api.store.changePassword(id, data.CurrentPassword, data.NewPassword)
	switch {
	case errors.Is(err, errNotFound):
		return errUserNotFound
	case err != nil:
		return errors.Wrap(err, "changing password")
	case !ok:
		return echo.NewHTTPError(http.StatusBadRequest, "Current password is incorrect")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// Students

func (api *handlers) listStudents(ctx echo.Context) error {
	filter := school.StudentFilter{
		Status: ctx.QueryParam("status"),
		Class:  ctx.QueryParam("class"),
		Search: ctx.QueryParam("search"),
	}
	return ctx.JSON(http.StatusOK, api.store.listStudents(filter))
}

func (api *handlers) retrieveStudent(ctx echo.Context) error {
	st, err := api.store.student(ctx.Param("id"))
	if err != nil {
		return errStudentNotFound
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *handlers) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	data.Clean()

	st, err := api.store.createStudent(data)
	if err != nil {
		if errors.Is(err, errDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "Student with this roll number already exists")
		}
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *handlers) destroyStudent(ctx echo.Context) error {
	if err := api.store.deleteStudent(ctx.Param("id")); err != nil {
		return errStudentNotFound
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Student deleted successfully"})
}

// Grades

func (api *handlers) listGrades(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listGrades(""))
}

func (api *handlers) listStudentGrades(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listGrades(ctx.Param("id")))
}

func (api *handlers) createGrade(ctx echo.Context) error {
	var data school.NewGrade
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	data.Clean()

	rec, err := api.store.createGrade(data)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return errStudentNotFound
		}
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

// Attendance

func (api *handlers) listAttendance(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listAttendance(ctx.QueryParam("date"), ""))
}

func (api *handlers) listStudentAttendance(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listAttendance("", ctx.Param("id")))
}

func (api *handlers) markAttendance(ctx echo.Context) error {
	var data school.NewAttendance
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	if api.srv.attendanceRejected(data.StudentID) {
		return errors.New("attendance storage unavailable")
	}

	rec, created, err := api.store.markAttendance(data)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return errStudentNotFound
		}
		return errors.Wrap(err, "marking attendance")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, rec)
}

// Fees

func (api *handlers) listFees(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listFees(""))
}

func (api *handlers) listStudentFees(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.listFees(ctx.Param("id")))
}

func (api *handlers) createFee(ctx echo.Context) error {
	var data school.NewFee
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	data.Clean()

	rec, err := api.store.createFee(data)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return errStudentNotFound
		}
		return errors.Wrap(err, "creating fee")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

// Notifications

func (api *handlers) listNotifications(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	return ctx.JSON(http.StatusOK, api.store.listNotifications(limit))
}

func (api *handlers) unreadCount(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, school.UnreadCount{Count: api.store.unreadCount()})
}

func (api *handlers) markRead(ctx echo.Context) error {
	if err := api.store.markRead(ctx.Param("id")); err != nil {
		return errNotificationNotFound
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Notification marked as read"})
}

func (api *handlers) markAllRead(ctx echo.Context) error {
	api.store.markAllRead()
	return ctx.JSON(http.StatusOK, messageResponse{Message: "All notifications marked as read"})
}

func (api *handlers) destroyNotification(ctx echo.Context) error {
	if err := api.store.deleteNotification(ctx.Param("id")); err != nil {
		return errNotificationNotFound
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Notification deleted"})
}

// Aggregates

func (api *handlers) dashboardStats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.dashboardStats())
}

func (api *handlers) recentActivities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.recentActivities(10))
}

func (api *handlers) classDistribution(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.classDistribution())
}

func (api *handlers) topPerformers(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.topPerformers(5))
}
