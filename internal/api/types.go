package api

import (
	"time"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/user"
)

// Requests

type RegisterRequest struct {
	Login       string `json:"login" validate:"required,max=255"`
	Password    string `json:"password" validate:"required,min=4"`
	FullName    string `json:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Role        string `json:"role" validate:"omitempty,oneof=CLIENT VIZAZHIST MANICURIST STYLIST BROWIST"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateServiceRequest struct {
	Title          string  `json:"title" validate:"required,max=255"`
	DurationQuanta int     `json:"duration_quarters" validate:"gt=0"`
	Price          float64 `json:"price" validate:"gt=0"`
	MasterID       int64   `json:"master_id" validate:"gt=0"`
}

type UpdateServiceRequest struct {
	Title          *string  `json:"title" validate:"omitempty,min=1,max=255"`
	DurationQuanta *int     `json:"duration_quarters" validate:"omitempty,gt=0"`
	Price          *float64 `json:"price" validate:"omitempty,gt=0"`
	MasterID       *int64   `json:"master_id" validate:"omitempty,gt=0"`
}

// CreateAppointmentRequest books for the caller when client_id is omitted.
type CreateAppointmentRequest struct {
	ClientID  int64  `json:"client_id" validate:"gte=0"`
	ServiceID int64  `json:"service_id" validate:"gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Quarter   int    `json:"quarter" validate:"gte=1"`
	Status    string `json:"status" validate:"omitempty,oneof=booked in_progress completed"`
	IsPaid    bool   `json:"is_paid"`
}

type UpdateAppointmentRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=booked in_progress completed"`
	IsPaid *bool   `json:"is_paid"`
}

type CreatePaymentRequest struct {
	AppointmentID int64   `json:"appointment_id" validate:"gt=0"`
	Amount        float64 `json:"amount" validate:"gt=0"`
}

// Responses

type UserResponse struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type MasterResponse struct {
	ID            int64  `json:"id"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	PhoneNumber   string `json:"phone_number"`
	ServicesCount int    `json:"services_count"`
}

type ServiceResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	DurationQuanta int     `json:"duration_quarters"`
	Price          float64 `json:"price"`
	MasterID       int64   `json:"master_id"`
}

type ServiceListResponse struct {
	ServiceResponse
	MasterFullName    string `json:"master_full_name"`
	MasterRole        string `json:"master_role"`
	MasterPhoneNumber string `json:"master_phone_number"`
}

type FreeQuartersResponse struct {
	FreeQuarters []int `json:"free_quarters"`
}

type AppointmentResponse struct {
	ID             int64   `json:"id"`
	ClientID       int64   `json:"client_id"`
	ServiceID      int64   `json:"service_id"`
	MasterID       int64   `json:"master_id"`
	Date           string  `json:"date"`
	Quarter        int     `json:"quarter"`
	Time           string  `json:"time"`
	Status         string  `json:"status"`
	IsPaid         bool    `json:"is_paid"`
	MasterFullName string  `json:"master_full_name"`
	ServiceTitle   string  `json:"service_title"`
	ServicePrice   float64 `json:"service_price"`
	ClientFullName string  `json:"client_full_name"`
}

type PaymentResponse struct {
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	ServiceTitle   string  `json:"service_title"`
	ClientFullName string  `json:"client_full_name"`
	Amount         float64 `json:"amount"`
}

type ScheduleResponse struct {
	DayQuanta      int      `json:"day_quanta"`
	QuantumMinutes int      `json:"quantum_minutes"`
	DayStart       string   `json:"day_start"`
	Labels         []string `json:"labels"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Login:       u.Login,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

func toServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:             s.ID,
		Title:          s.Title,
		DurationQuanta: s.DurationQuanta,
		Price:          s.Price,
		MasterID:       s.MasterID,
	}
}

func toServiceListResponse(s *catalog.ServiceWithMaster) ServiceListResponse {
	return ServiceListResponse{
		ServiceResponse:   toServiceResponse(&s.Service),
		MasterFullName:    s.MasterFullName,
		MasterRole:        string(s.MasterRole),
		MasterPhoneNumber: s.MasterPhoneNumber,
	}
}

func toAppointmentResponse(d *appointment.AppointmentDetail) AppointmentResponse {
	return AppointmentResponse{
		ID:             d.ID,
		ClientID:       d.ClientID,
		ServiceID:      d.ServiceID,
		MasterID:       d.MasterID,
		Date:           d.Date.Format(appointment.DateLayout),
		Quarter:        d.StartQuantum,
		Time:           d.StartTime,
		Status:         string(d.Status),
		IsPaid:         d.IsPaid,
		MasterFullName: d.MasterFullName,
		ServiceTitle:   d.ServiceTitle,
		ServicePrice:   d.ServicePrice,
		ClientFullName: d.ClientFullName,
	}
}

func toAppointmentList(details []appointment.AppointmentDetail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(details))
	for i := range details {
		out = append(out, toAppointmentResponse(&details[i]))
	}
	return out
}
