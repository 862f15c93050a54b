package rest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/httpapi"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
	"github.com/dmitrijs2005/cenkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, httpapi.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req httpapi.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || len(req.Salt) == 0 || len(req.Verifier) == 0 {
		writeError(w, http.StatusBadRequest, "name, salt and verifier are required")
		return
	}

	if _, err := s.deviceService.Register(r.Context(), req.Name, req.Salt, req.Verifier); err != nil {
		s.logger.Error(r.Context(), "register failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSalt(w http.ResponseWriter, r *http.Request) {
	var req httpapi.SaltRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	salt, err := s.deviceService.GetSalt(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, httpapi.SaltResponse{Salt: salt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req httpapi.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.deviceService.Login(r.Context(), req.Name, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req httpapi.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.deviceService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad since parameter")
			return
		}
		since = parsed
	}

	keys, checkpoint, err := s.disclosureService.ListKeysSince(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := httpapi.KeyListResponse{
		Keys:       make([]httpapi.DisclosedKey, 0, len(keys)),
		Checkpoint: checkpoint,
	}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, httpapi.DisclosedKey{
			Seq:   k.Seq,
			Value: hex.EncodeToString(k.Value),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	value, err := hex.DecodeString(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad key encoding")
		return
	}

	report, attachmentURL, err := s.disclosureService.GetReportByKey(r.Context(), value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, httpapi.ReportResponse{
		Report: httpapi.SymptomReport{
			ID:         report.ID,
			Symptoms:   report.Symptoms,
			AuthoredAt: report.AuthoredAt.Unix(),
		},
		AttachmentURL: attachmentURL,
	})
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceIDFromContext(r.Context())

	var req httpapi.SubmitReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Report.ID == "" {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "at least one key is required")
		return
	}

	keyValues := make([][]byte, 0, len(req.Keys))
	for _, k := range req.Keys {
		value, err := hex.DecodeString(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad key encoding")
			return
		}
		keyValues = append(keyValues, value)
	}

	report := &models.Report{
		ID:         req.Report.ID,
		Symptoms:   req.Report.Symptoms,
		AuthoredAt: time.Unix(req.Report.AuthoredAt, 0),
	}

	putURL, err := s.disclosureService.SubmitReport(r.Context(), deviceID, report, keyValues, req.WithAttachment)
	if err != nil {
		if errors.Is(err, services.ErrBadKeyLength) {
			writeError(w, http.StatusBadRequest, services.ErrBadKeyLength.Error())
			return
		}
		s.logger.Error(r.Context(), "report submission failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, httpapi.SubmitReportResponse{AttachmentPutURL: putURL})
}

func tokenResponse(pair *services.TokenPair) httpapi.TokenResponse {
	return httpapi.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
