// Package client is a typed HTTP client for the WaitWise API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("waitwise api returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// BookResult is the response of a booking
type BookResult struct {
	AppointmentID string                     `json:"appointment_id"`
	Position      int                        `json:"position"`
	Status        entities.AppointmentStatus `json:"status"`
}

// NotifyResult is the response of notify-next. AppointmentID is empty when
// nobody was waiting.
type NotifyResult struct {
	Status        string `json:"status"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

// ClinicQueue is the queued appointments of one clinic
type ClinicQueue struct {
	ClinicID     string                  `json:"clinic_id"`
	Appointments []*entities.Appointment `json:"appointments"`
	Count        int                     `json:"count"`
}

// HTTPClient talks to a WaitWise API server
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a patient
func (c *HTTPClient) Register(ctx context.Context, input services.RegisterInput) (*entities.User, error) {
	out := &entities.User{}
	if err := c.doJSON(ctx, http.MethodPost, "/register", input, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser fetches a patient
func (c *HTTPClient) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	out := &entities.User{}
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Triage classifies symptoms, recording the result on userID when set
func (c *HTTPClient) Triage(ctx context.Context, userID, symptoms string) (*services.Assessment, error) {
	body := map[string]string{"user_id": userID, "symptoms": symptoms}
	out := &services.Assessment{}
	if err := c.doJSON(ctx, http.MethodPost, "/triage", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListClinics lists clinics. sort may be empty to let the server choose;
// origin may be nil.
func (c *HTTPClient) ListClinics(ctx context.Context, sort services.SortCriterion, origin *geo.Point) ([]*entities.ClinicWithDistance, error) {
	query := url.Values{}
	if sort != "" {
		query.Set("sort", string(sort))
	}
	if origin != nil {
		query.Set("lat", strconv.FormatFloat(origin.Latitude, 'f', -1, 64))
		query.Set("lon", strconv.FormatFloat(origin.Longitude, 'f', -1, 64))
	}
	path := "/clinics/nearby"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out []*entities.ClinicWithDistance
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetClinic fetches one clinic
func (c *HTTPClient) GetClinic(ctx context.Context, clinicID string) (*entities.Clinic, error) {
	out := &entities.Clinic{}
	if err := c.doJSON(ctx, http.MethodGet, "/clinics/"+url.PathEscape(clinicID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClinicQueue returns the queued appointments of a clinic
func (c *HTTPClient) ClinicQueue(ctx context.Context, clinicID string) (*ClinicQueue, error) {
	out := &ClinicQueue{}
	if err := c.doJSON(ctx, http.MethodGet, "/clinics/"+url.PathEscape(clinicID)+"/queue", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Book joins a clinic queue
func (c *HTTPClient) Book(ctx context.Context, input services.BookInput) (*BookResult, error) {
	out := &BookResult{}
	if err := c.doJSON(ctx, http.MethodPost, "/book", input, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAppointment fetches an appointment with its estimated wait
func (c *HTTPClient) GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error) {
	out := &entities.AppointmentView{}
	if err := c.doJSON(ctx, http.MethodGet, "/appointments/"+url.PathEscape(appointmentID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel leaves the queue
func (c *HTTPClient) Cancel(ctx context.Context, appointmentID string) error {
	return c.doJSON(ctx, http.MethodPost, "/cancel", map[string]string{"appointment_id": appointmentID}, nil)
}

// Confirm records staff check-in
func (c *HTTPClient) Confirm(ctx context.Context, appointmentID string) error {
	return c.doJSON(ctx, http.MethodPost, "/appointments/"+url.PathEscape(appointmentID)+"/confirm", nil, nil)
}

// Complete closes a visit
func (c *HTTPClient) Complete(ctx context.Context, appointmentID string) error {
	return c.doJSON(ctx, http.MethodPost, "/appointments/"+url.PathEscape(appointmentID)+"/complete", nil, nil)
}

// NotifyNext calls the head of a clinic queue
func (c *HTTPClient) NotifyNext(ctx context.Context, clinicID string) (*NotifyResult, error) {
	out := &NotifyResult{}
	if err := c.doJSON(ctx, http.MethodPost, "/notify-next", map[string]string{"clinic_id": clinicID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report requests the visit summary of a confirmed appointment
func (c *HTTPClient) Report(ctx context.Context, appointmentID string, notes *string) (*entities.VisitReport, error) {
	body := struct {
		AppointmentID string  `json:"appointment_id"`
		Notes         *string `json:"notes,omitempty"`
	}{appointmentID, notes}
	out := &entities.VisitReport{}
	if err := c.doJSON(ctx, http.MethodPost, "/report", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
