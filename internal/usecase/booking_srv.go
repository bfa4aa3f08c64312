package usecase

import (
	"context"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/internal/dto/request"
	"booking-engine/internal/dto/response"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=booking_srv.go -destination=mocks/mock_booking_srv.go -package=mocks

type BookingService interface {
	// Operator endpoints
	GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error)
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.Page[response.BookingResponse], error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperror.Validation("invalid booking id", map[string]string{"id": "Must be a valid UUID"})
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	if booking == nil {
		return nil, apperror.NotFound("booking %s not found", bookingID)
	}

	detail := &response.BookingDetailResponse{
		BookingResponse: toBookingResponse(booking),
		Rooms:           []response.RoomReservationResponse{},
		Camps:           []response.CampRegistrationResponse{},
		AddOns:          []response.AddOnLineResponse{},
	}

	customer, err := s.repo.Customer.FindByID(ctx, booking.CustomerID)
	if err != nil {
		return nil, apperror.Server(err)
	}
	if customer != nil {
		detail.Customer = &response.CustomerResponse{
			ID:        customer.ID.String(),
			Email:     customer.Email,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Phone:     customer.Phone,
		}
	}

	payment, err := s.repo.Payment.FindByBookingID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	if payment != nil {
		detail.Payment = &response.PaymentResponse{
			ID:               payment.ID.String(),
			Amount:           payment.Amount,
			Currency:         payment.Currency,
			Status:           string(payment.Status),
			GatewaySessionID: payment.GatewaySessionID,
			GatewayTxnID:     payment.GatewayTxnID,
			RefundedAmount:   payment.RefundedAmount,
			FailureReason:    payment.FailureReason,
			PaymentDate:      payment.PaymentDate,
			ReviewRequired:   payment.ReviewRequired,
			ReviewReason:     payment.ReviewReason,
		}
	}

	rooms, err := s.repo.Reservation.FindRoomsByBookingID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	for _, r := range rooms {
		var bedID *string
		if r.BedID != nil {
			bed := r.BedID.String()
			bedID = &bed
		}
		detail.Rooms = append(detail.Rooms, response.RoomReservationResponse{
			ID:        r.ID.String(),
			RoomID:    r.RoomID.String(),
			BedID:     bedID,
			CheckIn:   r.CheckIn.Format(request.DateLayout),
			CheckOut:  r.CheckOut.Format(request.DateLayout),
			Guests:    r.Guests,
			LineTotal: r.LineTotal,
			Active:    r.Active,
		})
	}

	camps, err := s.repo.Reservation.FindCampsByBookingID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	for _, c := range camps {
		detail.Camps = append(detail.Camps, response.CampRegistrationResponse{
			ID:            c.ID.String(),
			CampSessionID: c.CampSessionID.String(),
			StartDate:     c.StartDate.Format(request.DateLayout),
			EndDate:       c.EndDate.Format(request.DateLayout),
			Guests:        c.Guests,
			LineTotal:     c.LineTotal,
			Active:        c.Active,
		})
	}

	lines, err := s.repo.AddOnLine.FindByBookingID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	for _, l := range lines {
		detail.AddOns = append(detail.AddOns, response.AddOnLineResponse{
			AddOnID:   l.AddOnID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}

	promo, err := s.repo.Promo.FindApplicationByBookingID(ctx, id)
	if err != nil {
		return nil, apperror.Server(err)
	}
	if promo != nil {
		detail.Promo = &response.PromoResponse{Code: promo.PromoCode, Kind: string(promo.Kind), Value: promo.Value}
		detail.Discount = promo.DiscountAmount
	}

	return detail, nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.Page[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("List bookings validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation("validation failed", errs)
	}

	var status *entity.BookingStatus
	if req.Status != "" {
		st := entity.BookingStatus(req.Status)
		status = &st
	}

	limit, offset := req.Window()
	bookings, err := s.repo.Booking.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperror.Server(err)
	}
	total, err := s.repo.Booking.Count(ctx, status)
	if err != nil {
		return nil, apperror.Server(err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, toBookingResponse(b))
	}

	return response.NewPage(data, req.Page, limit, total), nil
}

func toBookingResponse(b *entity.Booking) response.BookingResponse {
	resp := response.BookingResponse{
		ID:               b.ID.String(),
		Reference:        b.Reference,
		CustomerID:       b.CustomerID.String(),
		Status:           string(b.Status),
		Subtotal:         b.Subtotal,
		DiscountTotal:    b.DiscountTotal,
		TaxTotal:         b.TaxTotal,
		TotalAmount:      b.TotalAmount,
		TotalDisplay:     utils.FormatMinor(b.TotalAmount),
		Currency:         b.Currency,
		GatewaySessionID: b.GatewaySessionID,
		SessionExpiresAt: b.SessionExpiresAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.CheckIn != nil {
		in := b.CheckIn.Format(request.DateLayout)
		resp.CheckIn = &in
	}
	if b.CheckOut != nil {
		out := b.CheckOut.Format(request.DateLayout)
		resp.CheckOut = &out
	}
	return resp
}
