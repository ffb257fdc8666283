package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/middleware"
	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/profile"
)

type ProfileHandler struct {
	Profile *profile.Service
	Log     *zap.Logger
}

type imageRequest struct {
	Image string `json:"image"`
}

type themeRequest struct {
	Theme models.Theme `json:"theme"`
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.Account(r.Context()).Public())
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch models.AccountPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, h.Log, err)
		return
	}
	// Presence follows login and logout only.
	patch.Presence = nil

	acct, err := h.Profile.UpdateProfile(middleware.Account(r.Context()).ID, patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Public())
}

func (h *ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	acct, err := h.Profile.UpdateAvatar(middleware.Account(r.Context()).ID, req.Image)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Public())
}

func (h *ProfileHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	acct, err := h.Profile.UpdateBanner(middleware.Account(r.Context()).ID, req.Image)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Public())
}

func (h *ProfileHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.Profile.Theme()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, themeRequest{Theme: theme})
}

func (h *ProfileHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Profile.SetTheme(req.Theme); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
