package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	appForecast "github.com/krishibazaar/marketplace/internal/application/forecast"
	appListing "github.com/krishibazaar/marketplace/internal/application/listing"
	appOrder "github.com/krishibazaar/marketplace/internal/application/order"
	appOtp "github.com/krishibazaar/marketplace/internal/application/otp"
	appPayment "github.com/krishibazaar/marketplace/internal/application/payment"
	appReport "github.com/krishibazaar/marketplace/internal/application/report"
	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domainInventory "github.com/krishibazaar/marketplace/internal/domain/inventory"
	domainOrder "github.com/krishibazaar/marketplace/internal/domain/order"
	domainProduct "github.com/krishibazaar/marketplace/internal/domain/product"
	domainSales "github.com/krishibazaar/marketplace/internal/domain/sales"
	"github.com/krishibazaar/marketplace/internal/forecast"
	"github.com/krishibazaar/marketplace/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerActorID        = "X-Actor-ID"
	headerActorRole      = "X-Actor-Role"
	headerRequestID      = "X-Request-ID"

	targetDateLayout = "2006-01-02"
)

type Handler struct {
	orderService    *appOrder.Service
	paymentService  *appPayment.Service
	listingService  *appListing.Service
	forecastService *appForecast.Service
	reportService   *appReport.Service
	otpService      *appOtp.Service

	log observability.Logger
	tel observability.Observability
}

func NewHandler(
	orderSvc *appOrder.Service,
	paymentSvc *appPayment.Service,
	listingSvc *appListing.Service,
	forecastSvc *appForecast.Service,
	reportSvc *appReport.Service,
	otpSvc *appOtp.Service,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		orderService:    orderSvc,
		paymentService:  paymentSvc,
		listingService:  listingSvc,
		forecastService: forecastSvc,
		reportService:   reportSvc,
		otpService:      otpSvc,
		log:             tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:             tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, "POST /forecast", h.handleForecastAll)
	h.handle(mux, "GET /api/forecast", h.handleForecastSingle)
	h.handle(mux, "GET /products", h.handleSearchProducts)
	h.handle(mux, "POST /products", h.handleAddProduct)
	h.handle(mux, "POST /products/{id}", h.handleUpdateProduct)
	h.handle(mux, "GET /orders", h.handleListOrders)
	h.handle(mux, "POST /orders", h.handleCreateOrder)
	h.handle(mux, "POST /orders/{id}/accept", h.transitionHandler(appOrder.ActionAccept))
	h.handle(mux, "POST /orders/{id}/reject", h.transitionHandler(appOrder.ActionReject))
	h.handle(mux, "POST /orders/{id}/pay", h.handleRecordPayment)
	h.handle(mux, "GET /reconciliation", h.handleReconcile)
	h.handle(mux, "GET /activity", h.handleActivity)
	h.handle(mux, "POST /otp", h.handleIssueOTP)
	h.handle(mux, "GET /health", h.handleHealth)

	return mux
}

// handle wires a route with the middleware chain:
// Trace -> Request logger -> HTTP metrics -> Access log -> Handler.
func (h *Handler) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		h.withRequestLogger(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := contextWithRoute(r.Context(), pattern)
		wrapped.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// actorFromRequest resolves the authenticated actor injected by the identity
// collaborator. The core never consults ambient session state.
func actorFromRequest(r *http.Request) (actor.Actor, bool) {
	id := r.Header.Get(headerActorID)
	if id == "" {
		return actor.Actor{}, false
	}
	return actor.Actor{ID: id, Role: actor.Role(r.Header.Get(headerActorRole))}, true
}

type forecastRequest struct {
	TargetDate string `json:"target_date"`
}

type productForecastResponse struct {
	Product        string  `json:"product"`
	PredictedQty   int     `json:"predicted_qty,omitempty"`
	PredictedPrice float64 `json:"predicted_price,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type forecastAllResponse struct {
	Date        string                    `json:"date,omitempty"`
	Predictions []productForecastResponse `json:"predictions,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

func (h *Handler) handleForecastAll(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := time.Parse(targetDateLayout, req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("target_date must be YYYY-MM-DD"))
		return
	}

	result, err := h.forecastService.ForecastAll(r.Context(), target)
	if err != nil {
		// Forecast failures are result payloads, not transport errors.
		writeJSON(w, http.StatusOK, forecastAllResponse{Error: forecastErrorText(err)})
		return
	}

	resp := forecastAllResponse{Date: result.TargetDateLabel}
	for _, pf := range result.Products {
		row := productForecastResponse{Product: pf.Name}
		if pf.Err != nil {
			row.Error = forecastErrorText(pf.Err)
		} else {
			row.PredictedQty = pf.PredictedQuantity
			row.PredictedPrice = pf.PredictedPrice.InexactFloat64()
		}
		resp.Predictions = append(resp.Predictions, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleForecastSingle(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("product")
	if name == "" {
		writeJSON(w, http.StatusOK, map[string]string{"error": "No product provided"})
		return
	}

	target := time.Now().UTC()
	if raw := r.URL.Query().Get("target_date"); raw != "" {
		parsed, err := time.Parse(targetDateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("target_date must be YYYY-MM-DD"))
			return
		}
		target = parsed
	}

	pf, err := h.forecastService.ForecastSingle(r.Context(), name, target)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": forecastErrorText(err)})
		return
	}
	writeJSON(w, http.StatusOK, productForecastResponse{
		Product:        pf.Name,
		PredictedQty:   pf.PredictedQuantity,
		PredictedPrice: pf.PredictedPrice.InexactFloat64(),
	})
}

func forecastErrorText(err error) string {
	switch {
	case errors.Is(err, domainSales.ErrNoData):
		return "No historical data available."
	case errors.Is(err, forecast.ErrNotEnoughData):
		return "Not enough historical samples to forecast."
	default:
		return "Failed to generate forecast."
	}
}

type addProductRequest struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	Category   string `json:"category"`
	Location   string `json:"location"`
	AcceptsCOD bool   `json:"accepts_cod"`
	AcceptsUPI bool   `json:"accepts_upi"`
}

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	Category   string `json:"category"`
	Location   string `json:"location"`
	SellerID   string `json:"seller_id"`
	AcceptsCOD bool   `json:"accepts_cod"`
	AcceptsUPI bool   `json:"accepts_upi"`
}

func toProductResponse(p *domainProduct.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		Quantity:   p.Quantity,
		Category:   p.Category,
		Location:   p.Location,
		SellerID:   p.SellerID,
		AcceptsCOD: p.AcceptsCOD,
		AcceptsUPI: p.AcceptsUPI,
	}
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	var req addProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("price must be a decimal number"))
		return
	}

	p, err := h.listingService.AddProduct(r.Context(), act, appListing.AddProductInput{
		Name:       req.Name,
		Price:      price,
		Quantity:   req.Quantity,
		Category:   req.Category,
		Location:   req.Location,
		AcceptsCOD: req.AcceptsCOD,
		AcceptsUPI: req.AcceptsUPI,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

type updateProductRequest struct {
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("price must be a decimal number"))
		return
	}

	p, err := h.listingService.UpdateListing(r.Context(), act, r.PathValue("id"), price, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.listingService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createOrderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domainOrder.Status `json:"status"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.orderService.CreateOrder(r.Context(), act, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{OrderID: result.OrderID, Status: result.Status})
}

type orderResponse struct {
	OrderID       string `json:"order_id"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	orders, err := h.orderService.ListForActor(r.Context(), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			OrderID:       o.ID,
			ProductID:     o.ProductID,
			Quantity:      o.Quantity,
			Status:        string(o.Status),
			PaymentMethod: string(o.PaymentMethod),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) transitionHandler(action appOrder.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
			return
		}
		result, err := h.orderService.TransitionOrder(r.Context(), act, r.PathValue("id"), action)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, createOrderResponse{OrderID: result.OrderID, Status: result.Status})
	}
}

type recordPaymentRequest struct {
	Method string `json:"method"`
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.paymentService.RecordPayment(r.Context(), act, r.PathValue("id"), domainOrder.PaymentMethod(req.Method))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type reconcileResponse struct {
	TotalAcceptedQuantity int    `json:"total_accepted_qty"`
	TotalRevenue          string `json:"total_revenue"`
	TotalInventory        int    `json:"total_inventory"`
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	summary, err := h.reportService.Reconcile(r.Context(), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{
		TotalAcceptedQuantity: summary.TotalAcceptedQuantity,
		TotalRevenue:          summary.TotalRevenue.StringFixed(2),
		TotalInventory:        summary.TotalInventory,
	})
}

type activityResponse struct {
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity required"))
		return
	}
	entries, err := h.reportService.RecentActivity(r.Context(), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, activityResponse{ActorID: e.ActorID, Action: e.Action, OccurredAt: e.OccurredAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

type issueOTPRequest struct {
	Phone   string `json:"phone"`
	Carrier string `json:"carrier"`
}

func (h *Handler) handleIssueOTP(w http.ResponseWriter, r *http.Request) {
	var req issueOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	code, err := h.otpService.IssueOTP(r.Context(), req.Phone, req.Carrier)
	if err != nil && code == "" {
		writeError(w, http.StatusInternalServerError, errors.New("failed to issue OTP"))
		return
	}
	if err != nil {
		// Delivery failed; expose the code so the caller can fall back to a
		// test-mode prompt, matching the gateway-unconfigured flow.
		writeJSON(w, http.StatusOK, map[string]any{"delivered": false, "test_mode_code": code})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"delivered": true})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainProduct.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrUnauthorized),
		errors.Is(err, domainProduct.ErrNotOwner):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainInventory.ErrInsufficientStock),
		errors.Is(err, domainOrder.ErrAlreadyFinalized),
		errors.Is(err, domainOrder.ErrOrderRejected):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainOrder.ErrInvalidQuantity),
		errors.Is(err, domainOrder.ErrInvalidMethod),
		errors.Is(err, domainProduct.ErrInvalidName),
		errors.Is(err, domainProduct.ErrInvalidPrice),
		errors.Is(err, domainProduct.ErrInvalidQuantity),
		errors.Is(err, domainInventory.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
