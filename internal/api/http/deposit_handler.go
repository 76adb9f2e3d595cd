package http

import (
	"net/http"
	"strconv"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/utils"
)

func (h *Handlers) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Deposits.CreateDeposit(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handlers) listMyDeposits(w http.ResponseWriter, r *http.Request) {
	filter, err := h.depositFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, total, err := h.svc.Deposits.ListMyDeposits(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(list, total, filter.Page, filter.Limit))
}

func (h *Handlers) getMyDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Deposits.GetMyDeposit(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) updateDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req depositUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up, err := req.update(h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Deposits.UpdateDeposit(r.Context(), actorFrom(r.Context()), id, up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) deleteDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Deposits.DeleteDeposit(r.Context(), actorFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) cancelDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Deposits.CancelDeposit(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// previewPenalty answers GET ?month=YYYY-MM&amount=N[&payment_date=...].
func (h *Handlers) previewPenalty(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := parseMonthParam(q.Get("month"), h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if month == nil {
		writeError(w, r, domain.Errorf(domain.ErrValidation, "month is required"))
		return
	}
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil {
		writeError(w, r, domain.Errorf(domain.ErrValidation, "amount must be an integer"))
		return
	}
	paid := h.now()
	if raw := q.Get("payment_date"); raw != "" {
		if paid, err = parseInstant("payment_date", raw, h.loc); err != nil {
			writeError(w, r, err)
			return
		}
	}

	b, err := h.svc.Deposits.PreviewPenalty(r.Context(), *month, paid, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, penaltyPreviewResponse{
		Month:        utils.FormatMonth(*month),
		Amount:       b.Amount,
		Penalty:      b.Penalty,
		Total:        b.Total,
		DaysLate:     b.DaysLate,
		PenaltyStart: b.PenaltyStart,
	})
}

// depositFilter reads status, method, from, to (YYYY-MM), page and limit.
func (h *Handlers) depositFilter(r *http.Request) (domain.DepositFilter, error) {
	q := r.URL.Query()
	page, limit, err := queryPage(r)
	if err != nil {
		return domain.DepositFilter{}, err
	}
	from, err := parseMonthParam(q.Get("from"), h.loc)
	if err != nil {
		return domain.DepositFilter{}, err
	}
	to, err := parseMonthParam(q.Get("to"), h.loc)
	if err != nil {
		return domain.DepositFilter{}, err
	}
	return domain.DepositFilter{
		Status: domain.DepositStatus(q.Get("status")),
		Method: domain.PaymentMethod(q.Get("method")),
		From:   from,
		To:     to,
		Page:   page,
		Limit:  limit,
	}, nil
}
