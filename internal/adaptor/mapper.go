package adaptor

import (
	"booking-engine/internal/dto/request"
	"booking-engine/internal/dto/response"
	"booking-engine/internal/usecase"
	"booking-engine/pkg/utils"
)

func toAvailabilityResponse(res *usecase.ConflictResult) response.AvailabilityResponse {
	out := response.AvailabilityResponse{
		Available: !res.HasConflict,
		Conflicts: make([]response.ConflictResponse, 0, len(res.Conflicts)),
		Warnings:  res.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	for _, c := range res.Conflicts {
		conflict := response.ConflictResponse{
			ItemIndex:    c.ItemIndex,
			ResourceType: string(c.ResourceType),
			ResourceID:   c.ResourceID.String(),
			Start:        c.Start.Format(request.DateLayout),
			End:          c.End.Format(request.DateLayout),
			Reason:       c.Reason,
		}
		if c.HoldingBookingID != nil {
			holder := c.HoldingBookingID.String()
			conflict.HoldingBookingID = &holder
		}
		out.Conflicts = append(out.Conflicts, conflict)
	}
	return out
}

func toQuoteResponse(q *usecase.Quote) response.QuoteResponse {
	out := response.QuoteResponse{
		Lines:           make([]response.QuoteLineResponse, 0, len(q.Lines)),
		Subtotal:        q.Subtotal,
		SubtotalDisplay: utils.FormatMinor(q.Subtotal),
		DiscountTotal:   q.DiscountTotal,
		DiscountDisplay: utils.FormatMinor(q.DiscountTotal),
		Taxes:           make([]response.TaxLineResponse, 0, len(q.Taxes)),
		TaxTotal:        q.TaxTotal,
		TaxTotalDisplay: utils.FormatMinor(q.TaxTotal),
		GrandTotal:      q.GrandTotal,
		GrandDisplay:    utils.FormatMinor(q.GrandTotal),
		Currency:        q.Currency,
		ValidUntil:      q.ValidUntil,
		Warnings:        q.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	for _, l := range q.Lines {
		out.Lines = append(out.Lines, response.QuoteLineResponse{
			ItemIndex:     l.ItemIndex,
			Kind:          l.Kind,
			ResourceID:    l.ResourceID.String(),
			Description:   l.Description,
			Quantity:      l.Quantity,
			Nights:        l.Nights,
			UnitAmount:    l.UnitAmount,
			Amount:        l.Amount,
			AmountDisplay: utils.FormatMinor(l.Amount),
		})
	}
	for _, t := range q.Taxes {
		out.Taxes = append(out.Taxes, response.TaxLineResponse{
			Name:          t.Name,
			RateBps:       t.RateBps,
			Amount:        t.Amount,
			AmountDisplay: utils.FormatMinor(t.Amount),
		})
	}
	if q.PromoCode != "" {
		out.Promo = &response.PromoResponse{Code: q.PromoCode, Kind: string(q.PromoKind), Value: q.PromoValue}
	}
	return out
}
