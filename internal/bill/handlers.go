package bill

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zombor/billed/internal/errs"
)

const maxUploadSize = int64(20 << 20)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		FromContext(r.Context()).Error("Error encoding response", "error", err)
	}
}

// writeError answers {"error": message}
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}

// handleError maps a service error to a response. Internal failures are
// logged and not echoed back.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := FromContext(r.Context())
	status := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		writeError(w, r, status, "Internal server error")
		return
	}
	log.Warn("Request rejected", "status", status, "error", err)
	writeError(w, r, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	writeJSON(w, r, http.StatusOK, bills)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, bill)
}

// handleCreateBill is the first submission phase: a multipart upload of the
// receipt ("file") and the submitter ("email").
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	log := FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Warn("Error parsing multipart form", "error", err)
		message := "Error parsing form"
		if strings.Contains(err.Error(), "request body too large") {
			message = "File is too large. Maximum size is 20MB."
		}
		writeError(w, r, http.StatusBadRequest, message)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		log.Warn("Error getting file from form", "error", err)
		writeError(w, r, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, r, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFromFilename(header.Filename)
	}

	result, err := s.service.Create(r.Context(), CreateRequest{
		File: File{
			Name:        header.Filename,
			ContentType: contentType,
			Data:        data,
		},
		Email: r.FormValue("email"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("Bill created", "bill_id", result.Key, "filename", header.Filename)
	writeJSON(w, r, http.StatusCreated, result)
}

// handleUpdateBill is the second submission phase. The body is the bill;
// the path selects the record.
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var data Bill
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	bill, err := s.service.Update(r.Context(), UpdateRequest{
		Data:     data,
		Selector: chi.URLParam(r, "id"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	FromContext(r.Context()).Info("Bill submitted", "bill_id", bill.ID)
	writeJSON(w, r, http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
