package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"slotbook/backend/internal/domain"
	"slotbook/backend/internal/service/appointments"
	"slotbook/backend/internal/store"
)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	Update(ctx context.Context, ref store.Ref, in appointments.UpdateInput) (domain.Appointment, error)
	Get(ctx context.Context, ref store.Ref) (domain.Appointment, error)
	List(ctx context.Context) ([]domain.Appointment, error)
	Delete(ctx context.Context, ref store.Ref) (domain.Appointment, error)
}

type AppointmentsServer struct {
	svc  appointmentsService
	ping func(ctx context.Context) error
	log  *slog.Logger
}

func NewAppointmentsServer(svc appointmentsService, ping func(ctx context.Context) error, log *slog.Logger) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsServer{
		svc:  svc,
		ping: ping,
		log:  log.With(slog.String("component", "rest.appointments")),
	}
}

func (s *AppointmentsServer) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/appointments", s.CreateAppointment)
	api.GET("/appointments", s.ListAppointments)
	api.GET("/appointments/:id", s.GetAppointment)
	api.PUT("/appointments/:id", s.UpdateAppointment)
	api.DELETE("/appointments/:id", s.DeleteAppointment)
	e.GET("/healthz", s.Health)
}

type messageResponse struct {
	Message string `json:"message"`
}

type createAppointmentRequest struct {
	ClientName   string `json:"clientName"`
	ProviderName string `json:"providerName"`
	Service      string `json:"service"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type updateAppointmentRequest struct {
	ClientName   *string `json:"clientName"`
	ProviderName *string `json:"providerName"`
	Service      *string `json:"service"`
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Status       *string `json:"status"`
}

type deleteAppointmentResponse struct {
	Message string             `json:"message"`
	Deleted domain.Appointment `json:"deleted"`
}

func (s *AppointmentsServer) CreateAppointment(c echo.Context) error {
	log := s.log.With(slog.String("handler", "CreateAppointment"))

	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
	}

	appt, err := s.svc.Create(c.Request().Context(), appointments.CreateInput{
		ClientName:   req.ClientName,
		ProviderName: req.ProviderName,
		Service:      req.Service,
		Date:         req.Date,
		Time:         req.Time,
	})
	if err != nil {
		return s.writeError(c, log, err)
	}

	log.Info(
		"appointment created",
		slog.Int64("appointment_id", appt.AppointmentID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	return c.JSON(http.StatusCreated, appt)
}

func (s *AppointmentsServer) ListAppointments(c echo.Context) error {
	log := s.log.With(slog.String("handler", "ListAppointments"))

	appts, err := s.svc.List(c.Request().Context())
	if err != nil {
		return s.writeError(c, log, err)
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	return c.JSON(http.StatusOK, appts)
}

func (s *AppointmentsServer) GetAppointment(c echo.Context) error {
	log := s.log.With(slog.String("handler", "GetAppointment"))

	ref, err := store.ParseRef(c.Param("id"))
	if err != nil {
		return s.writeError(c, log, err)
	}

	appt, err := s.svc.Get(c.Request().Context(), ref)
	if err != nil {
		return s.writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (s *AppointmentsServer) UpdateAppointment(c echo.Context) error {
	log := s.log.With(slog.String("handler", "UpdateAppointment"))

	ref, err := store.ParseRef(c.Param("id"))
	if err != nil {
		return s.writeError(c, log, err)
	}

	var req updateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
	}

	appt, err := s.svc.Update(c.Request().Context(), ref, appointments.UpdateInput{
		ClientName:   req.ClientName,
		ProviderName: req.ProviderName,
		Service:      req.Service,
		Date:         req.Date,
		Time:         req.Time,
		Status:       req.Status,
	})
	if err != nil {
		return s.writeError(c, log, err)
	}

	log.Info(
		"appointment updated",
		slog.Int64("appointment_id", appt.AppointmentID),
		slog.String("status", string(appt.Status)),
	)
	return c.JSON(http.StatusOK, appt)
}

func (s *AppointmentsServer) DeleteAppointment(c echo.Context) error {
	log := s.log.With(slog.String("handler", "DeleteAppointment"))

	ref, err := store.ParseRef(c.Param("id"))
	if err != nil {
		return s.writeError(c, log, err)
	}

	appt, err := s.svc.Delete(c.Request().Context(), ref)
	if err != nil {
		return s.writeError(c, log, err)
	}

	log.Info("appointment deleted", slog.Int64("appointment_id", appt.AppointmentID))
	return c.JSON(http.StatusOK, deleteAppointmentResponse{
		Message: "appointment deleted",
		Deleted: appt,
	})
}

func (s *AppointmentsServer) Health(c echo.Context) error {
	if s.ping != nil {
		if err := s.ping(c.Request().Context()); err != nil {
			s.log.Error("health check failed", slog.Any("err", err))
			return c.JSON(http.StatusServiceUnavailable, messageResponse{Message: "database unreachable"})
		}
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "ok"})
}

// writeError maps the service error taxonomy to HTTP statuses. It switches
// on error types, never on message text.
func (s *AppointmentsServer) writeError(c echo.Context, log *slog.Logger, err error) error {
	var scErr *store.SlotConflictError
	if errors.As(err, &scErr) {
		log.Info("slot conflict", slog.String("dimension", string(scErr.Dimension)))
		return c.JSON(http.StatusConflict, messageResponse{
			Message: "an appointment already exists for the same " + string(scErr.Dimension) + " at that date and time",
		})
	}

	var vErr *appointments.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("request rejected", slog.String("kind", string(vErr.Kind)), slog.Any("err", err))
		return c.JSON(http.StatusBadRequest, messageResponse{Message: vErr.Error()})
	}

	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "appointment not found"})
	}

	log.Error("request failed", slog.Any("err", err))
	return c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
}
