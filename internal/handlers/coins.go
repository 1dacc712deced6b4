package handlers

import (
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
)

// Wallet returns the balance and one page of transactions.
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.Ledger.Wallet(r.Context(), caller(r).UserID, queryInt(r, "limit"), queryInt(r, "skip"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{
		"balance":      wallet.Balance,
		"transactions": wallet.Transactions,
	})
}

func (h *Handler) VIPStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.VIP.Status(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", envelope{"vip": status})
}

type purchaseVIPRequest struct {
	Level int `json:"level"`
}

func (h *Handler) PurchaseVIP(w http.ResponseWriter, r *http.Request) {
	req := purchaseVIPRequest{Level: 1}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Level == 0 {
			req.Level = 1
		}
	}

	res, err := h.VIP.Purchase(r.Context(), caller(r).UserID, req.Level)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInsufficientFunds {
			writeError(w, r, apperr.InsufficientFunds("Not enough coins to purchase VIP"))
			return
		}
		writeError(w, r, err)
		return
	}
	writeOK(w, "VIP purchased", envelope{
		"record":      res.Record,
		"transaction": res.Transaction,
		"balance":     res.Balance,
	})
}
