package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foundry-app/foundry/internal/domain"
	discoveruc "github.com/foundry-app/foundry/internal/usecase/discover"
	healthuc "github.com/foundry-app/foundry/internal/usecase/health"
	reportuc "github.com/foundry-app/foundry/internal/usecase/report"
)

type createItemRequest struct {
	ItemType    string         `json:"itemType"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	DateLost    string         `json:"dateLost,omitempty"`
	DateFound   string         `json:"dateFound,omitempty"`
	Contact     domain.Contact `json:"contact"`
	ImageURL    string         `json:"imageUrl,omitempty"`
}

type matchResponse struct {
	ItemID string  `json:"itemId"`
	Score  float64 `json:"score"`
}

type createItemResponse struct {
	Message  string          `json:"message"`
	ItemID   string          `json:"itemId"`
	Item     domain.Item     `json:"item"`
	Matching string          `json:"matching"`
	Matches  []matchResponse `json:"matches,omitempty"`
}

type deleteItemResponse struct {
	Message string      `json:"message"`
	Item    domain.Item `json:"item"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// createLostItem handles POST /items/lost.
func (s *Server) createLostItem(w http.ResponseWriter, r *http.Request) {
	s.createItem(w, r, domain.ReportLost)
}

// createFoundItem handles POST /items/found.
func (s *Server) createFoundItem(w http.ResponseWriter, r *http.Request) {
	s.createItem(w, r, domain.ReportFound)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request, reportType domain.ReportType) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	dateField, dateRaw := "dateLost", req.DateLost
	if reportType == domain.ReportFound {
		dateField, dateRaw = "dateFound", req.DateFound
	}
	eventDate, err := parseDate(dateRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, dateField+" must be an ISO date")
		return
	}

	result, err := s.reports.Create(r.Context(), reportType, reportuc.Input{
		ItemType:    req.ItemType,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   eventDate,
		Contact:     req.Contact,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := createItemResponse{
		Message:  string(reportType) + " item reported",
		ItemID:   result.Item.ID,
		Item:     result.Item,
		Matching: string(result.Matching),
	}
	for _, m := range result.Matches {
		resp.Matches = append(resp.Matches, matchResponse{ItemID: m.LostItem.ID, Score: m.Score})
	}

	writeJSON(w, http.StatusCreated, resp)
}

// getItem handles GET /items/{id}.
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.reports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// deleteItem handles DELETE /items/{id}.
func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.reports.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteItemResponse{Message: "item deleted", Item: item})
}

// discoverItems handles GET /items/discover.
func (s *Server) discoverItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := s.discovery.Do(r.Context(), discoveruc.Query{
		Search:    q.Get("search"),
		ItemType:  q.Get("itemType"),
		Status:    q.Get("status"),
		DateRange: q.Get("dateRange"),
		SortBy:    q.Get("sortBy"),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// parseDate accepts a plain ISO date or a full RFC 3339 timestamp. An
// empty value parses to the zero time so required-field validation can
// report it by name.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
