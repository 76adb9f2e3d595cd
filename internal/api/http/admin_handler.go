package http

import (
	"net/http"
	"strconv"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/service"
)

func (h *Handlers) adminListDeposits(w http.ResponseWriter, r *http.Request) {
	filter, err := h.depositFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("member_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, domain.Errorf(domain.ErrValidation, "member_id must be an integer"))
			return
		}
		filter.MemberID = &id
	}
	list, total, err := h.svc.Approvals.ListDeposits(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(list, total, filter.Page, filter.Limit))
}

func (h *Handlers) adminGetDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Approvals.GetDeposit(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) approveDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Approvals.ApproveDeposit(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) rejectDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reasonRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Approvals.RejectDeposit(r.Context(), actorFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) listMembers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.MemberFilter{
		Status: domain.MemberStatus(q.Get("status")),
		Query:  q.Get("q"),
		Page:   page,
		Limit:  limit,
	}
	list, total, err := h.svc.Members.ListMembers(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(list, total, page, limit))
}

func (h *Handlers) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Members.GetMember(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) approveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Members.ApproveMember(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) rejectMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reasonRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Members.RejectMember(r.Context(), actorFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) updateMemberStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Members.UpdateMemberStatus(r.Context(), actorFrom(r.Context()), id, domain.MemberStatus(req.Status), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats.Dashboard(r.Context(), actorFrom(r.Context()), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) monthlySeries(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months")
	if err != nil {
		writeError(w, r, err)
		return
	}
	series, err := h.svc.Stats.MonthlySeries(r.Context(), actorFrom(r.Context()), h.now(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handlers) methodDistribution(w http.ResponseWriter, r *http.Request) {
	shares, err := h.svc.Stats.PaymentMethodDistribution(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

func (h *Handlers) topContributors(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k")
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := h.svc.Stats.TopContributors(r.Context(), actorFrom(r.Context()), k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *Handlers) listAudit(w http.ResponseWriter, r *http.Request) {
	page, limit, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.AuditFilter{
		EntityType: q.Get("entity_type"),
		Page:       page,
		Limit:      limit,
	}
	for name, dst := range map[string]**int64{"entity_id": &filter.EntityID, "actor_id": &filter.ActorID} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, domain.Errorf(domain.ErrValidation, "%s must be an integer", name))
			return
		}
		*dst = &id
	}
	entries, total, err := h.svc.Approvals.ListAuditEntries(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(entries, total, page, limit))
}

func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.svc.Settings.UpdateSettings(r.Context(), actorFrom(r.Context()), service.SettingsInput{
		MinDepositAmount:       req.MinDepositAmount,
		PenaltyRatePerThousand: req.PenaltyRatePerThousand,
		PenaltyStartDay:        req.PenaltyStartDay,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
