package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/order"
	"pos-dispatch/internal/track"
)

// API is the HTTP client for the dispatch server. It decodes the server's
// error envelope back into typed domain errors so callers can branch on
// conflict vs invalid-transition vs unauthorized, and wraps transport
// failures as NETWORK errors.
type API struct {
	baseURL    string
	token      string
	driverID   string
	httpClient *http.Client
}

func NewAPI(baseURL, token, driverID string) *API {
	return &API{
		baseURL:    baseURL,
		token:      token,
		driverID:   driverID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type orderEnvelope struct {
	Order *order.Order `json:"order"`
}

type orderListEnvelope struct {
	Orders []*order.Order `json:"orders"`
	Meta   order.PageMeta `json:"meta"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *API) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domainerrors.NewInternal("failed to encode request", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return domainerrors.NewInternal("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domainerrors.NewNetwork("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil || env.Error.Code == "" {
			return domainerrors.NewNetwork(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		}
		return &domainerrors.DomainError{Code: env.Error.Code, Message: env.Error.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domainerrors.NewNetwork("failed to decode response", err)
		}
	}
	return nil
}

// --- Dispatch operations ---

func (a *API) Claim(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var env orderEnvelope
	path := fmt.Sprintf("/driver/orders/%s/claim", orderID)
	if err := a.do(ctx, http.MethodPost, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (a *API) SetStatus(ctx context.Context, orderID uuid.UUID, status order.Status, pm *order.PaymentMethod) (*order.Order, error) {
	var env orderEnvelope
	path := fmt.Sprintf("/driver/orders/%s/status", orderID)
	body := map[string]any{"status": status}
	if pm != nil {
		body["payment_method"] = *pm
	}
	if err := a.do(ctx, http.MethodPatch, path, body, &env); err != nil {
		return nil, err
	}
	return env.Order, nil
}

// --- view.Fetcher ---

func (a *API) FetchAvailable(ctx context.Context, page, limit int) ([]*order.Order, order.PageMeta, error) {
	var env orderListEnvelope
	path := fmt.Sprintf("/driver/orders/available?page=%d&limit=%d", page, limit)
	if err := a.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, order.PageMeta{}, err
	}
	return env.Orders, env.Meta, nil
}

func (a *API) FetchMine(ctx context.Context, driverID string, page, limit int) ([]*order.Order, order.PageMeta, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	var env orderListEnvelope
	if err := a.do(ctx, http.MethodGet, "/driver/orders/mine?"+q.Encode(), nil, &env); err != nil {
		return nil, order.PageMeta{}, err
	}
	return env.Orders, env.Meta, nil
}

// --- track.Reporter ---

func (a *API) ReportPosition(ctx context.Context, fix track.Fix, orderID *string) error {
	body := map[string]any{
		"latitude":  fix.Lat,
		"longitude": fix.Lng,
	}
	if fix.Accuracy != nil {
		body["accuracy"] = *fix.Accuracy
	}
	if orderID != nil {
		body["order_id"] = *orderID
	}
	return a.do(ctx, http.MethodPost, "/driver/location", body, nil)
}

func (a *API) NotifyStopped(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/driver/location/stopped", nil, nil)
}
